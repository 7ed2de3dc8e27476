package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"loveGrowAPI/internal/types/profile"
	"loveGrowAPI/internal/types/progress"
)

// ErrProfileNotFound is returned by lookups when no profile exists for the
// given Clerk ID.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileService owns persistence of the profile aggregate (identity,
// stats, daily challenge batch) in Postgres.
type ProfileService struct {
	db *pgxpool.Pool
}

func NewProfileService(db *pgxpool.Pool) *ProfileService {
	return &ProfileService{db: db}
}

const profileColumns = `
	id, clerk_id, email, relationship_status, points, level, challenges_completed,
	single_profile, couple_profile, has_completed_onboarding,
	COALESCE(last_challenge_date, ''), COALESCE(daily_challenges, '[]'::jsonb),
	created_at, updated_at
`

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	p := &profile.Profile{}
	err := row.Scan(
		&p.ID,
		&p.ClerkID,
		&p.Email,
		&p.RelationshipStatus,
		&p.Stats.Points,
		&p.Stats.Level,
		&p.Stats.ChallengesCompleted,
		&p.SingleProfile,
		&p.CoupleProfile,
		&p.HasCompletedOnboarding,
		&p.LastChallengeDate,
		&p.DailyChallenges,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProfile inserts the skeleton profile a Clerk signup starts with:
// level 1, zero points, onboarding not yet completed.
func (s *ProfileService) CreateProfile(ctx context.Context, req *profile.CreateProfileRequest) (*profile.Profile, error) {
	stats := progress.NewStats()

	query := `
	INSERT INTO profiles (id, clerk_id, email, points, level, challenges_completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	ON CONFLICT (clerk_id) DO NOTHING
	RETURNING ` + profileColumns

	p, err := scanProfile(s.db.QueryRow(
		ctx,
		query,
		uuid.New().String(),
		req.ClerkID,
		req.Email,
		stats.Points,
		stats.Level,
		stats.ChallengesCompleted,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict: the profile already exists, return it instead.
			return s.GetByClerkID(ctx, req.ClerkID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return p, nil
}

// GetByClerkID loads the profile aggregate, or ErrProfileNotFound.
func (s *ProfileService) GetByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE clerk_id = $1`

	p, err := scanProfile(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

// Save writes the full aggregate back. Last write wins; there is no
// conflict detection against concurrent writers.
func (s *ProfileService) Save(ctx context.Context, p *profile.Profile) error {
	query := `
	UPDATE profiles
	SET email = $2,
		relationship_status = $3,
		points = $4,
		level = $5,
		challenges_completed = $6,
		single_profile = $7,
		couple_profile = $8,
		has_completed_onboarding = $9,
		last_challenge_date = NULLIF($10, ''),
		daily_challenges = $11,
		updated_at = NOW()
	WHERE clerk_id = $1
	`

	tag, err := s.db.Exec(
		ctx,
		query,
		p.ClerkID,
		p.Email,
		p.RelationshipStatus,
		p.Stats.Points,
		p.Stats.Level,
		p.Stats.ChallengesCompleted,
		p.SingleProfile,
		p.CoupleProfile,
		p.HasCompletedOnboarding,
		p.LastChallengeDate,
		p.DailyChallenges,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// CompleteOnboarding sets the relationship classification and the matching
// profile card. The classification is immutable afterwards.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, clerkID string, req *profile.OnboardingRequest) (*profile.Profile, error) {
	if !req.RelationshipStatus.Valid() {
		return nil, fmt.Errorf("invalid relationship status: %q", req.RelationshipStatus)
	}
	if req.RelationshipStatus.IsCouple() && req.CoupleProfile == nil {
		return nil, fmt.Errorf("couple profile is required for status %q", req.RelationshipStatus)
	}
	if !req.RelationshipStatus.IsCouple() && req.SingleProfile == nil {
		return nil, fmt.Errorf("single profile is required for status %q", req.RelationshipStatus)
	}

	p, err := s.GetByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if p.HasCompletedOnboarding {
		return nil, fmt.Errorf("onboarding already completed")
	}

	p.RelationshipStatus = req.RelationshipStatus
	p.SingleProfile = req.SingleProfile
	p.CoupleProfile = req.CoupleProfile
	p.HasCompletedOnboarding = true

	if err := s.Save(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// UpdateProfile applies partial edits to the profile card. The
// relationship classification is not editable here.
func (s *ProfileService) UpdateProfile(ctx context.Context, clerkID string, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	p, err := s.GetByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if p.SingleProfile != nil {
		if req.ImageURL != nil {
			p.SingleProfile.ImageURL = *req.ImageURL
		}
		if req.Bio != nil {
			p.SingleProfile.Bio = *req.Bio
		}
		if req.Interests != nil {
			p.SingleProfile.Interests = *req.Interests
		}
	}
	if p.CoupleProfile != nil {
		if req.ImageURL != nil {
			p.CoupleProfile.ImageURL = *req.ImageURL
		}
		if req.SharedBio != nil {
			p.CoupleProfile.SharedBio = *req.SharedBio
		}
	}

	if err := s.Save(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// DeleteByClerkID removes the profile and everything hanging off it.
func (s *ProfileService) DeleteByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// GetLeaderboard ranks onboarded profiles by level, then points.
func (s *ProfileService) GetLeaderboard(ctx context.Context, limit int) ([]profile.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT
		COALESCE(single_profile->>'name', couple_profile->'names'->>0, email),
		COALESCE(single_profile->>'imageUrl', couple_profile->>'imageUrl', ''),
		level, points, challenges_completed
	FROM profiles
	WHERE has_completed_onboarding = true
	ORDER BY level DESC, points DESC, challenges_completed DESC
	LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []profile.LeaderboardEntry{}
	for rows.Next() {
		var e profile.LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.ImageURL, &e.Level, &e.Points, &e.ChallengesCompleted); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}

	return entries, nil
}
