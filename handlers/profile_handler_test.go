package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeaderboardLimit(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"default", "", 50},
		{"explicit", "?limit=10", 10},
		{"at cap", "?limit=100", 100},
		{"over cap", "?limit=1000000", 100},
		{"zero", "?limit=0", 50},
		{"negative", "?limit=-5", 50},
		{"not a number", "?limit=abc", 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/user/leaderboard"+tc.query, nil)
			assert.Equal(t, tc.want, leaderboardLimit(r))
		})
	}
}
