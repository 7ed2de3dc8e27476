package challenge

type RelationshipStatus string

const (
	StatusSingle  RelationshipStatus = "single"
	StatusDating  RelationshipStatus = "dating"
	StatusMarried RelationshipStatus = "married"
)

// Valid reports whether the status is one of the three onboarding choices.
func (s RelationshipStatus) Valid() bool {
	return s == StatusSingle || s == StatusDating || s == StatusMarried
}

// IsCouple reports whether the status belongs to a two-person profile.
func (s RelationshipStatus) IsCouple() bool {
	return s == StatusDating || s == StatusMarried
}

// BatchSize is how many challenges a day's batch holds for this status.
func (s RelationshipStatus) BatchSize() int {
	if s.IsCouple() {
		return 5
	}
	return 3
}

// Challenge is one AI-generated micro-task. Type is a free-form category
// label suggested by the prompt archetypes, not an enforced enum.
type Challenge struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// Batch is a day's full set of challenges, tagged with the local calendar
// date (YYYY-MM-DD) it was generated for. At most one batch is active per
// profile per date.
type Batch struct {
	Date       string      `json:"date"`
	Challenges []Challenge `json:"challenges"`
}
