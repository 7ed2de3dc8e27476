package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loveGrowAPI/handlers"
	"loveGrowAPI/services"
	"loveGrowAPI/tests/helpers"
)

func TestWebhookUserCreatedIsIdempotent(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	webhookHandler := handlers.NewWebhookHandler(profileService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405.000")
	payload := helpers.MockClerkWebhookPayload("user.created", clerkID)

	// Clerk retries webhooks; a duplicate delivery must not fail or
	// create a second profile.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
		rr := httptest.NewRecorder()
		webhookHandler.HandleClerkWebhook(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	p, err := profileService.GetByClerkID(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, clerkID, p.ClerkID)
}

func TestWebhookUserDeletedUnknownProfile(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	webhookHandler := handlers.NewWebhookHandler(profileService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	payload := helpers.MockClerkWebhookPayload("user.deleted", "user_test_never_existed")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "deleting an unknown profile is not an error")
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	profileService := services.NewProfileService(pool)
	webhookHandler := handlers.NewWebhookHandler(profileService)

	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_testsecret")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	payload := helpers.MockClerkWebhookPayload("user.created", "user_test_sig")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_123")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,bogus")
	rr := httptest.NewRecorder()

	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
