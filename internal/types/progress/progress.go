package progress

// PointsPerChallenge is the fixed award for completing one daily challenge.
const PointsPerChallenge = 20

// Stats is the gamification aggregate for one profile. Points are always
// non-negative, Level starts at 1, ChallengesCompleted never decreases.
type Stats struct {
	Points              int `json:"points"`
	Level               int `json:"level"`
	ChallengesCompleted int `json:"challengesCompleted"`
}

// NewStats returns the stats a freshly onboarded profile starts with.
func NewStats() Stats {
	return Stats{Points: 0, Level: 1, ChallengesCompleted: 0}
}

// PointsToNextLevel is the threshold the point balance must reach before
// the next level-up.
func PointsToNextLevel(level int) int {
	return (level + 1) * 100
}

// ApplyCompletion awards the fixed points for one completed challenge and
// recomputes the level. The remainder above the threshold carries over into
// the new level. A single award of PointsPerChallenge can cross at most one
// threshold, since every threshold is at least 100.
func (s *Stats) ApplyCompletion() (leveledUp bool) {
	s.Points += PointsPerChallenge

	if threshold := PointsToNextLevel(s.Level); s.Points >= threshold {
		s.Level++
		s.Points -= threshold
		leveledUp = true
	}

	s.ChallengesCompleted++
	return leveledUp
}
