package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"loveGrowAPI/internal/gemini"
	"loveGrowAPI/middleware"
	"loveGrowAPI/services"
)

type CoachHandler struct {
	coachService *services.CoachService
	profiles     ProfileLoader
}

func NewCoachHandler(coachService *services.CoachService, profiles ProfileLoader) *CoachHandler {
	return &CoachHandler{
		coachService: coachService,
		profiles:     profiles,
	}
}

// Chat relays one coach message. The client keeps the conversation history
// and sends it along with each turn.
func (h *CoachHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		Message string        `json:"message"`
		History []gemini.Turn `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Message == "" {
		respondWithError(w, http.StatusBadRequest, "Message is required")
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

	reply, err := h.coachService.Advise(ctx, p.RelationshipStatus, body.History, body.Message)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "The coach is unavailable right now. Please try again.")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
