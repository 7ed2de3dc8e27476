package clock

import "time"

// DateLayout is the calendar-date form used to tag challenge batches.
const DateLayout = "2006-01-02"

// Clock abstracts "today" so the day-rollover logic stays deterministic in
// tests. Dates are the device-local calendar date; no timezone
// normalization is performed.
type Clock interface {
	Now() time.Time
	Today() string
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) Today() string {
	return time.Now().Format(DateLayout)
}

// Fixed is a test clock pinned to a single instant.
type Fixed struct {
	Time time.Time
}

func (f Fixed) Now() time.Time {
	return f.Time
}

func (f Fixed) Today() string {
	return f.Time.Format(DateLayout)
}
