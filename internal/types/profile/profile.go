package profile

import (
	"time"

	"loveGrowAPI/internal/types/challenge"
	"loveGrowAPI/internal/types/progress"
)

// SingleProfile is the public card a single user shows on discovery.
type SingleProfile struct {
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
}

// CoupleProfile is the shared card for dating/married users.
type CoupleProfile struct {
	Names     [2]string `json:"names"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	SharedBio string    `json:"sharedBio"`
}

// Profile is the aggregate root for one user: identity, relationship
// classification, gamification stats and the active daily challenge batch.
// LastChallengeDate is the local YYYY-MM-DD the current batch was generated
// for; empty until the first batch exists.
type Profile struct {
	ID                     string                       `json:"id"`
	ClerkID                string                       `json:"clerkId"`
	Email                  string                       `json:"email"`
	RelationshipStatus     challenge.RelationshipStatus `json:"relationshipStatus"`
	Stats                  progress.Stats               `json:"stats"`
	SingleProfile          *SingleProfile               `json:"singleProfile,omitempty"`
	CoupleProfile          *CoupleProfile               `json:"coupleProfile,omitempty"`
	HasCompletedOnboarding bool                         `json:"hasCompletedOnboarding"`
	LastChallengeDate      string                       `json:"lastChallengeDate,omitempty"`
	DailyChallenges        []challenge.Challenge        `json:"dailyChallenges"`
	CreatedAt              time.Time                    `json:"createdAt"`
	UpdatedAt              time.Time                    `json:"updatedAt"`
}

type CreateProfileRequest struct {
	ClerkID string `json:"clerkId"`
	Email   string `json:"email"`
}

// OnboardingRequest finishes profile creation. Exactly one of
// SingleProfile/CoupleProfile must match the chosen status.
type OnboardingRequest struct {
	RelationshipStatus challenge.RelationshipStatus `json:"relationshipStatus"`
	SingleProfile      *SingleProfile               `json:"singleProfile,omitempty"`
	CoupleProfile      *CoupleProfile               `json:"coupleProfile,omitempty"`
}

type UpdateProfileRequest struct {
	ImageURL  *string   `json:"imageUrl,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	SharedBio *string   `json:"sharedBio,omitempty"`
	Interests *[]string `json:"interests,omitempty"`
}

// LeaderboardEntry ranks profiles by level, then points.
type LeaderboardEntry struct {
	Rank                int    `json:"rank"`
	Name                string `json:"name"`
	ImageURL            string `json:"imageUrl,omitempty"`
	Level               int    `json:"level"`
	Points              int    `json:"points"`
	ChallengesCompleted int    `json:"challengesCompleted"`
}
