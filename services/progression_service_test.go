package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loveGrowAPI/internal/clock"
	"loveGrowAPI/internal/types/challenge"
	"loveGrowAPI/internal/types/profile"
	"loveGrowAPI/internal/types/progress"
)

type fakeStore struct {
	mu    sync.Mutex
	saves int
	err   error
	done  chan struct{}
}

func (f *fakeStore) Save(ctx context.Context, p *profile.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.done != nil {
		close(f.done)
		f.done = nil
	}
	return f.err
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type fakeGenerator struct {
	batch *challenge.Batch
	err   error
	calls int
}

func (f *fakeGenerator) GenerateChallenges(ctx context.Context, status challenge.RelationshipStatus) (*challenge.Batch, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.batch, nil
}

type recordedEvents struct {
	mu        sync.Mutex
	completed []challenge.Challenge
	levelUps  []int
}

func (r *recordedEvents) ChallengeCompleted(p *profile.Profile, ch challenge.Challenge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, ch)
}

func (r *recordedEvents) LevelUp(p *profile.Profile, newLevel int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levelUps = append(r.levelUps, newLevel)
}

var testDay = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testProfile() *profile.Profile {
	return &profile.Profile{
		ID:                     "00000000-0000-0000-0000-000000000001",
		ClerkID:                "user_test123",
		RelationshipStatus:     challenge.StatusDating,
		Stats:                  progress.NewStats(),
		HasCompletedOnboarding: true,
	}
}

func testBatch(date string, n int) *challenge.Batch {
	b := &challenge.Batch{Date: date}
	for i := 0; i < n; i++ {
		b.Challenges = append(b.Challenges, challenge.Challenge{
			Type:    "Romantic Gesture",
			Content: fmt.Sprintf("challenge %d", i),
		})
	}
	return b
}

func TestEnsureTodaysChallengesGeneratesOnFirstUse(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{batch: testBatch("2026-03-14", 5)}
	svc := NewProgressionService(store, gen, clock.Fixed{Time: testDay})

	p := testProfile()
	challenges, err := svc.EnsureTodaysChallenges(context.Background(), p)
	require.NoError(t, err)

	assert.Len(t, challenges, 5)
	assert.Equal(t, "2026-03-14", p.LastChallengeDate)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, store.saveCount(), "new batch is persisted synchronously")
}

func TestEnsureTodaysChallengesReusesTodaysBatch(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{batch: testBatch("2026-03-14", 5)}
	svc := NewProgressionService(store, gen, clock.Fixed{Time: testDay})

	p := testProfile()
	p.LastChallengeDate = "2026-03-14"
	p.DailyChallenges = testBatch("2026-03-14", 5).Challenges
	p.DailyChallenges[2].Completed = true

	challenges, err := svc.EnsureTodaysChallenges(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 0, gen.calls, "no regeneration within the same day")
	assert.Equal(t, 0, store.saveCount())
	assert.True(t, challenges[2].Completed, "completion state survives")
}

func TestEnsureTodaysChallengesRollsOver(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{batch: testBatch("2026-03-14", 5)}
	svc := NewProgressionService(store, gen, clock.Fixed{Time: testDay})

	p := testProfile()
	p.LastChallengeDate = "2026-03-13"
	p.DailyChallenges = testBatch("2026-03-13", 5).Challenges
	p.DailyChallenges[0].Completed = true

	challenges, err := svc.EnsureTodaysChallenges(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "2026-03-14", p.LastChallengeDate)
	assert.False(t, challenges[0].Completed, "yesterday's completions do not leak in")
}

func TestEnsureTodaysChallengesGeneratorFailureLeavesProfileUntouched(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{err: &GenerationError{Kind: GenerationExhaustedRetries, Err: fmt.Errorf("boom")}}
	svc := NewProgressionService(store, gen, clock.Fixed{Time: testDay})

	p := testProfile()
	p.LastChallengeDate = "2026-03-13"
	stale := testBatch("2026-03-13", 5).Challenges
	p.DailyChallenges = stale

	_, err := svc.EnsureTodaysChallenges(context.Background(), p)
	require.Error(t, err)

	assert.Equal(t, "2026-03-13", p.LastChallengeDate)
	assert.Equal(t, stale, p.DailyChallenges)
	assert.Equal(t, 0, store.saveCount())
}

func TestCompleteChallengeAwardsPointsAndPersistsAsync(t *testing.T) {
	store := &fakeStore{done: make(chan struct{})}
	saved := store.done
	svc := NewProgressionService(store, &fakeGenerator{}, clock.Fixed{Time: testDay})

	p := testProfile()
	p.Stats = progress.Stats{Points: 80, Level: 1, ChallengesCompleted: 2}
	p.DailyChallenges = testBatch("2026-03-14", 5).Challenges

	snapshot, err := svc.CompleteChallenge(context.Background(), p, 1)
	require.NoError(t, err)

	assert.True(t, snapshot.DailyChallenges[1].Completed)
	assert.Equal(t, 100, snapshot.Stats.Points)
	assert.Equal(t, 1, snapshot.Stats.Level)
	assert.Equal(t, 3, snapshot.Stats.ChallengesCompleted)

	select {
	case <-saved:
	case <-time.After(time.Second):
		t.Fatal("expected background persistence")
	}
	assert.Equal(t, 1, store.saveCount())
}

func TestCompleteChallengeIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	events := &recordedEvents{}
	svc := NewProgressionService(store, &fakeGenerator{}, clock.Fixed{Time: testDay})
	svc.SetEvents(events)

	p := testProfile()
	p.DailyChallenges = testBatch("2026-03-14", 3).Challenges
	p.DailyChallenges[0].Completed = true
	p.Stats = progress.Stats{Points: 20, Level: 1, ChallengesCompleted: 1}

	snapshot, err := svc.CompleteChallenge(context.Background(), p, 0)
	require.NoError(t, err)

	assert.Equal(t, 20, snapshot.Stats.Points)
	assert.Equal(t, 1, snapshot.Stats.ChallengesCompleted)
	assert.Empty(t, events.completed, "no event for a repeat completion")
	assert.Equal(t, 0, store.saveCount(), "nothing to persist")
}

func TestCompleteChallengeIndexOutOfRange(t *testing.T) {
	svc := NewProgressionService(&fakeStore{}, &fakeGenerator{}, clock.Fixed{Time: testDay})

	p := testProfile()
	p.DailyChallenges = testBatch("2026-03-14", 3).Challenges

	_, err := svc.CompleteChallenge(context.Background(), p, 3)
	assert.Error(t, err)

	_, err = svc.CompleteChallenge(context.Background(), p, -1)
	assert.Error(t, err)

	for _, ch := range p.DailyChallenges {
		assert.False(t, ch.Completed)
	}
}

func TestCompleteChallengeLevelUpWithCarryOver(t *testing.T) {
	store := &fakeStore{}
	events := &recordedEvents{}
	svc := NewProgressionService(store, &fakeGenerator{}, clock.Fixed{Time: testDay})
	svc.SetEvents(events)

	p := testProfile()
	p.Stats = progress.Stats{Points: 185, Level: 1, ChallengesCompleted: 9}
	p.DailyChallenges = testBatch("2026-03-14", 5).Challenges

	snapshot, err := svc.CompleteChallenge(context.Background(), p, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.Stats.Level)
	assert.Equal(t, 5, snapshot.Stats.Points)
	assert.Equal(t, 10, snapshot.Stats.ChallengesCompleted)

	require.Len(t, events.completed, 1)
	require.Len(t, events.levelUps, 1)
	assert.Equal(t, 2, events.levelUps[0])
}

func TestCompleteChallengeNoLevelUpEventBelowThreshold(t *testing.T) {
	events := &recordedEvents{}
	svc := NewProgressionService(&fakeStore{}, &fakeGenerator{}, clock.Fixed{Time: testDay})
	svc.SetEvents(events)

	p := testProfile()
	p.DailyChallenges = testBatch("2026-03-14", 5).Challenges

	_, err := svc.CompleteChallenge(context.Background(), p, 0)
	require.NoError(t, err)

	assert.Len(t, events.completed, 1)
	assert.Empty(t, events.levelUps)
}

func TestCompleteChallengePersistenceFailureKeepsSnapshot(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("connection reset"), done: make(chan struct{})}
	saved := store.done
	svc := NewProgressionService(store, &fakeGenerator{}, clock.Fixed{Time: testDay})

	p := testProfile()
	p.DailyChallenges = testBatch("2026-03-14", 3).Challenges

	snapshot, err := svc.CompleteChallenge(context.Background(), p, 0)
	require.NoError(t, err, "persistence failure never surfaces to the caller")
	assert.True(t, snapshot.DailyChallenges[0].Completed)
	assert.Equal(t, 20, snapshot.Stats.Points)

	<-saved
}
