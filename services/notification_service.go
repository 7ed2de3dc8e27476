package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"loveGrowAPI/internal/types/challenge"
	"loveGrowAPI/internal/types/notification"
	"loveGrowAPI/internal/types/profile"
)

// PushProvider delivers a push notification to a set of device tokens.
// Implemented by the FCM service.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error
}

// NotificationService records progress notifications and dispatches pushes.
// It is the subscriber behind the progression engine's fire-and-forget
// events, so nothing here may block or fail the scoring path.
type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

// SetPushProvider injects the push backend. Without one, notifications are
// stored but not pushed.
func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.pushProvider = p
}

// ChallengeCompleted implements ProgressEvents. Runs in the background;
// errors are logged only.
func (s *NotificationService) ChallengeCompleted(p *profile.Profile, ch challenge.Challenge) {
	go s.record(p, &notification.CreateNotificationRequest{
		ProfileID: p.ID,
		Type:      notification.TypeChallengeCompleted,
		Title:     "Challenge complete!",
		Body:      fmt.Sprintf("You finished '%s' and earned 20 Love Points.", ch.Type),
	})
}

// LevelUp implements ProgressEvents.
func (s *NotificationService) LevelUp(p *profile.Profile, newLevel int) {
	go s.record(p, &notification.CreateNotificationRequest{
		ProfileID: p.ID,
		Type:      notification.TypeLevelUp,
		Title:     "Level up!",
		Body:      fmt.Sprintf("Your growth journey reached level %d. Keep going!", newLevel),
	})
}

func (s *NotificationService) record(p *profile.Profile, req *notification.CreateNotificationRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	notif, err := s.CreateNotification(ctx, req)
	if err != nil {
		log.Printf("Failed to record %s notification for %s: %v", req.Type, p.ClerkID, err)
		return
	}

	if s.pushProvider == nil {
		return
	}

	tokens, err := s.getDeviceTokens(ctx, p.ID)
	if err != nil {
		log.Printf("Failed to load device tokens for %s: %v", p.ClerkID, err)
		return
	}

	data := map[string]string{"type": string(notif.Type)}
	if err := s.pushProvider.SendPush(ctx, tokens, notif.Title, notif.Body, data); err != nil {
		log.Printf("Failed to push %s notification for %s: %v", req.Type, p.ClerkID, err)
	}
}

func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	notif := &notification.Notification{
		ID:        uuid.New(),
		ProfileID: req.ProfileID,
		Type:      req.Type,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO notifications (id, profile_id, type, title, body, read, created_at)
	VALUES ($1, $2, $3, $4, $5, false, $6)
	`

	_, err := s.db.Exec(ctx, query, notif.ID, notif.ProfileID, notif.Type, notif.Title, notif.Body, notif.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, profileID string, limit int) (*notification.ListResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, profile_id, type, title, body, read, created_at
	FROM notifications
	WHERE profile_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	list := []notification.Notification{}
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.ProfileID, &n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	unread, err := s.GetUnreadCount(ctx, profileID)
	if err != nil {
		return nil, err
	}

	return &notification.ListResponse{Notifications: list, UnreadCount: unread}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, profileID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE profile_id = $1 AND read = false`, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, profileID string, notificationID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET read = true WHERE id = $1 AND profile_id = $2`, notificationID, profileID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, profileID string) error {
	_, err := s.db.Exec(ctx, `UPDATE notifications SET read = true WHERE profile_id = $1`, profileID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// RegisterDevice stores a push token for the profile. Re-registering the
// same token refreshes its platform.
func (s *NotificationService) RegisterDevice(ctx context.Context, profileID string, token notification.DeviceToken) error {
	query := `
	INSERT INTO device_tokens (profile_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token)
	DO UPDATE SET profile_id = $1, platform = $3
	`

	_, err := s.db.Exec(ctx, query, profileID, token.Token, token.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) getDeviceTokens(ctx context.Context, profileID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE profile_id = $1`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
