package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loveGrowAPI/handlers"
	"loveGrowAPI/internal/clock"
	"loveGrowAPI/internal/types/challenge"
	"loveGrowAPI/internal/types/profile"
	"loveGrowAPI/middleware"
	"loveGrowAPI/services"
	"loveGrowAPI/tests/helpers"
)

// stubTextGenerator stands in for the Gemini API so the flow runs
// offline and deterministically.
type stubTextGenerator struct{}

func (stubTextGenerator) GenerateChallengeJSON(ctx context.Context, prompt string) (string, error) {
	return `[
		{"type": "Deep Conversation Starter", "content": "What small thing made you smile today?"},
		{"type": "Romantic Gesture", "content": "Leave a heartfelt note for your partner."},
		{"type": "Shared Adventure", "content": "Take a 20-minute walk somewhere new together."},
		{"type": "Teamwork Challenge", "content": "Cook dinner together without a recipe."},
		{"type": "Date Night Idea", "content": "Plan a surprise mini-date for this week."}
	]`, nil
}

// TestFullOnboardingAndChallengeFlow simulates the complete flow: signup
// webhook, onboarding, fetching today's challenges and completing one.
func TestFullOnboardingAndChallengeFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	generator := services.NewChallengeGenerator(stubTextGenerator{}, clock.SystemClock{})
	progressionService := services.NewProgressionService(profileService, generator, clock.SystemClock{})

	profileHandler := handlers.NewProfileHandler(profileService)
	challengeHandler := handlers.NewChallengeHandler(profileService, progressionService)
	webhookHandler := handlers.NewWebhookHandler(profileService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")

	// Step 1: User signs up via Clerk
	t.Log("Step 1: User signs up")

	createPayload := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req1 := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(createPayload))
	rr1 := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr1, req1)
	assert.Equal(t, http.StatusOK, rr1.Code, "Webhook should succeed")

	ctx := context.Background()
	p, err := profileService.GetByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, "test.user@example.com", p.Email)
	assert.False(t, p.HasCompletedOnboarding)
	assert.Equal(t, 1, p.Stats.Level)

	// Step 2: User completes onboarding as a couple
	t.Log("Step 2: User completes onboarding")

	onboarding := `{
		"relationshipStatus": "dating",
		"coupleProfile": {"names": ["Alex", "Sam"], "sharedBio": "Together since 2023"}
	}`
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/user/onboarding", strings.NewReader(onboarding))
	req2.Header.Set("Content-Type", "application/json")
	req2 = req2.WithContext(context.WithValue(req2.Context(), middleware.ClerkIDKey, clerkID))
	rr2 := httptest.NewRecorder()

	profileHandler.CompleteOnboarding(rr2, req2)
	require.Equal(t, http.StatusOK, rr2.Code, rr2.Body.String())

	// Step 3: User fetches today's challenges
	t.Log("Step 3: User fetches today's challenges")

	req3 := httptest.NewRequest(http.MethodGet, "/api/v1/challenges/today", nil)
	req3 = req3.WithContext(context.WithValue(req3.Context(), middleware.ClerkIDKey, clerkID))
	rr3 := httptest.NewRecorder()

	challengeHandler.GetDailyChallenges(rr3, req3)
	require.Equal(t, http.StatusOK, rr3.Code, rr3.Body.String())

	var today struct {
		Date       string                `json:"date"`
		Challenges []challenge.Challenge `json:"challenges"`
	}
	require.NoError(t, json.Unmarshal(rr3.Body.Bytes(), &today))
	assert.Len(t, today.Challenges, 5)
	assert.NotEmpty(t, today.Date)

	// Step 4: Fetching again the same day does not regenerate
	t.Log("Step 4: Same-day fetch is stable")

	req4 := httptest.NewRequest(http.MethodGet, "/api/v1/challenges/today", nil)
	req4 = req4.WithContext(context.WithValue(req4.Context(), middleware.ClerkIDKey, clerkID))
	rr4 := httptest.NewRecorder()

	challengeHandler.GetDailyChallenges(rr4, req4)
	require.Equal(t, http.StatusOK, rr4.Code)

	// Step 5: User completes a challenge
	t.Log("Step 5: User completes a challenge")

	req5 := httptest.NewRequest(http.MethodPost, "/api/v1/challenges/complete", strings.NewReader(`{"index": 0}`))
	req5.Header.Set("Content-Type", "application/json")
	req5 = req5.WithContext(context.WithValue(req5.Context(), middleware.ClerkIDKey, clerkID))
	rr5 := httptest.NewRecorder()

	challengeHandler.CompleteChallenge(rr5, req5)
	require.Equal(t, http.StatusOK, rr5.Code, rr5.Body.String())

	var snapshot profile.Profile
	require.NoError(t, json.Unmarshal(rr5.Body.Bytes(), &snapshot))
	assert.True(t, snapshot.DailyChallenges[0].Completed)
	assert.Equal(t, 20, snapshot.Stats.Points)
	assert.Equal(t, 1, snapshot.Stats.ChallengesCompleted)

	// Step 6: Background persistence lands in the database
	t.Log("Step 6: Completion is persisted")

	require.Eventually(t, func() bool {
		stored, err := profileService.GetByClerkID(ctx, clerkID)
		if err != nil {
			return false
		}
		return len(stored.DailyChallenges) > 0 && stored.DailyChallenges[0].Completed
	}, 3*time.Second, 100*time.Millisecond, "async persistence should complete")

	stored, err := profileService.GetByClerkID(ctx, clerkID)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Stats.Points)

	// Step 7: User deletes the account
	t.Log("Step 7: User deletes account")

	req7 := httptest.NewRequest(http.MethodDelete, "/api/v1/user/delete-account", nil)
	req7 = req7.WithContext(context.WithValue(req7.Context(), middleware.ClerkIDKey, clerkID))
	rr7 := httptest.NewRecorder()

	profileHandler.DeleteAccount(rr7, req7)
	assert.Equal(t, http.StatusOK, rr7.Code)

	_, err = profileService.GetByClerkID(ctx, clerkID)
	assert.Error(t, err, "Profile should be deleted")
}
