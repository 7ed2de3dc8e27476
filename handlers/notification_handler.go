package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"loveGrowAPI/internal/types/notification"
	"loveGrowAPI/middleware"
	"loveGrowAPI/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	profiles            ProfileLoader
}

func NewNotificationHandler(notificationService *services.NotificationService, profiles ProfileLoader) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		profiles:            profiles,
	}
}

func (h *NotificationHandler) resolveProfileID(ctx context.Context, w http.ResponseWriter) (string, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return "", false
	}

	p, err := h.profiles.GetByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondWithError(w, http.StatusNotFound, "Profile not found")
			return "", false
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return "", false
	}

	return p.ID, true
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := h.resolveProfileID(ctx, w)
	if !ok {
		return
	}

	list, err := h.notificationService.GetNotifications(ctx, profileID, 50)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := h.resolveProfileID(ctx, w)
	if !ok {
		return
	}

	count, err := h.notificationService.GetUnreadCount(ctx, profileID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"unreadCount": count})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := h.resolveProfileID(ctx, w)
	if !ok {
		return
	}

	notificationID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}

	if err := h.notificationService.MarkAsRead(ctx, profileID, notificationID); err != nil {
		respondWithError(w, http.StatusNotFound, "Notification not found")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := h.resolveProfileID(ctx, w)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllAsRead(ctx, profileID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to mark notifications as read")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "all marked as read"})
}

func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := h.resolveProfileID(ctx, w)
	if !ok {
		return
	}

	var token notification.DeviceToken
	if err := json.NewDecoder(r.Body).Decode(&token); err != nil || token.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.notificationService.RegisterDevice(ctx, profileID, token); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "device registered"})
}
