package recorder

import (
	"time"

	"github.com/google/uuid"
)

// Session is the state of one calibrate-record-stop cycle. The controller owns
// it; observers receive copies.
type Session struct {
	ID          string
	Destination string
	StartedAt   time.Time

	Baseline int           // zero until calibration completes
	Samples  []int         // sorted calibration readings
	Elapsed  time.Duration // recording time since calibration finished
	Ticks    int
	Peak     int // peak of the last evaluated silence batch

	Recording bool
}

func newSession(destination string, now time.Time) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Destination: destination,
		StartedAt:   now,
		Recording:   true,
	}
}
