package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"loveGrowAPI/internal/types/challenge"
	"loveGrowAPI/internal/types/profile"
	"loveGrowAPI/middleware"
	"loveGrowAPI/services"
)

// ProfileLoader loads the profile aggregate for the authenticated user.
type ProfileLoader interface {
	GetByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error)
}

// ProgressionEngine is the slice of the progression service the challenge
// endpoints need.
type ProgressionEngine interface {
	EnsureTodaysChallenges(ctx context.Context, p *profile.Profile) ([]challenge.Challenge, error)
	CompleteChallenge(ctx context.Context, p *profile.Profile, index int) (*profile.Profile, error)
}

type ChallengeHandler struct {
	profiles    ProfileLoader
	progression ProgressionEngine
}

func NewChallengeHandler(profiles ProfileLoader, progression ProgressionEngine) *ChallengeHandler {
	return &ChallengeHandler{
		profiles:    profiles,
		progression: progression,
	}
}

// GetDailyChallenges returns today's batch, generating a fresh one when
// the day has rolled over. Generation can take several seconds when the
// backoff schedule kicks in, hence the generous timeout.
func (h *ChallengeHandler) GetDailyChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.profiles.GetByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if !p.HasCompletedOnboarding {
		respondWithError(w, http.StatusConflict, "Complete onboarding before fetching challenges")
		return
	}

	challenges, err := h.progression.EnsureTodaysChallenges(ctx, p)
	if err != nil {
		var genErr *services.GenerationError
		if errors.As(err, &genErr) {
			// The profile is untouched; the client offers a manual retry.
			respondWithError(w, http.StatusBadGateway, "Failed to generate challenges. Please try again.")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load today's challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":       p.LastChallengeDate,
		"challenges": challenges,
		"stats":      p.Stats,
	})
}

// CompleteChallenge marks one challenge done and returns the updated
// profile snapshot immediately; persistence completes in the background.
func (h *ChallengeHandler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.profiles.GetByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	snapshot, err := h.progression.CompleteChallenge(ctx, p, body.Index)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// GetStats returns the profile's gamification aggregate.
func (h *ChallengeHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.profiles.GetByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	respondWithJSON(w, http.StatusOK, p.Stats)
}
