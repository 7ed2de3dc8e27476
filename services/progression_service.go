package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"loveGrowAPI/internal/clock"
	"loveGrowAPI/internal/types/challenge"
	"loveGrowAPI/internal/types/profile"
)

const defaultPersistTimeout = 5 * time.Second

// ProfileSaver persists the profile aggregate. Save is last-write-wins at
// the storage layer; it is not transactional with the in-memory state.
type ProfileSaver interface {
	Save(ctx context.Context, p *profile.Profile) error
}

// BatchGenerator produces a fresh challenge batch for a relationship
// status. Implemented by ChallengeGenerator.
type BatchGenerator interface {
	GenerateChallenges(ctx context.Context, status challenge.RelationshipStatus) (*challenge.Batch, error)
}

// ProgressEvents receives the two fire-and-forget progress signals.
// Implementations must not block; failures never reach the scoring path.
type ProgressEvents interface {
	ChallengeCompleted(p *profile.Profile, ch challenge.Challenge)
	LevelUp(p *profile.Profile, newLevel int)
}

// ProgressionService owns the gamification state transitions: the
// once-per-day challenge batch lifecycle and the completion scoring
// algorithm. The profile aggregate is only ever mutated here.
type ProgressionService struct {
	store          ProfileSaver
	generator      BatchGenerator
	clk            clock.Clock
	events         ProgressEvents
	persistTimeout time.Duration
}

func NewProgressionService(store ProfileSaver, generator BatchGenerator, clk clock.Clock) *ProgressionService {
	return &ProgressionService{
		store:          store,
		generator:      generator,
		clk:            clk,
		persistTimeout: defaultPersistTimeout,
	}
}

// SetEvents injects the progress event subscriber. Optional; scoring works
// without one.
func (s *ProgressionService) SetEvents(events ProgressEvents) {
	s.events = events
}

// EnsureTodaysChallenges returns the profile's challenge batch for today,
// generating and persisting a new one when the day has rolled over or the
// batch is empty. On generator failure the error propagates without
// touching the profile, so the caller can safely retry.
//
// Two concurrent calls racing before either persists can both generate;
// the second write wins. Expected single-client usage makes this
// acceptable; a compare-and-swap on lastChallengeDate at the storage layer
// would be needed to close it.
func (s *ProgressionService) EnsureTodaysChallenges(ctx context.Context, p *profile.Profile) ([]challenge.Challenge, error) {
	today := s.clk.Today()

	if p.LastChallengeDate == today && len(p.DailyChallenges) > 0 {
		return p.DailyChallenges, nil
	}

	batch, err := s.generator.GenerateChallenges(ctx, p.RelationshipStatus)
	if err != nil {
		return nil, err
	}

	p.DailyChallenges = batch.Challenges
	p.LastChallengeDate = batch.Date

	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to persist today's challenges: %w", err)
	}

	return p.DailyChallenges, nil
}

// CompleteChallenge marks the challenge at index complete and applies the
// scoring algorithm. Completing an already-completed challenge is a no-op,
// making the operation idempotent per challenge. The updated profile is
// returned immediately; persistence happens asynchronously and a failure
// there is logged without rolling back the in-memory state.
func (s *ProgressionService) CompleteChallenge(ctx context.Context, p *profile.Profile, index int) (*profile.Profile, error) {
	if index < 0 || index >= len(p.DailyChallenges) {
		return nil, fmt.Errorf("challenge index %d out of range (batch has %d)", index, len(p.DailyChallenges))
	}

	if p.DailyChallenges[index].Completed {
		return p, nil
	}

	p.DailyChallenges[index].Completed = true
	leveledUp := p.Stats.ApplyCompletion()
	if leveledUp {
		levelUpsTotal.Inc()
	}

	if s.events != nil {
		s.events.ChallengeCompleted(p, p.DailyChallenges[index])
		if leveledUp {
			s.events.LevelUp(p, p.Stats.Level)
		}
	}

	go s.persist(p)

	return p, nil
}

func (s *ProgressionService) persist(p *profile.Profile) {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	if err := s.store.Save(ctx, p); err != nil {
		log.Printf("Failed to persist progress for profile %s: %v", p.ClerkID, err)
	}
}
