package goupi

import (
	"time"

	"github.com/google/uuid"
)

// DisplayLayout is the format of <GoupiDate/> and of PostRecord.TimestampDisplay.
const DisplayLayout = "2006-01-02 15:04:05"

// Clock abstracts time retrieval so builds are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// formatDisplay renders t in local time using DisplayLayout.
func formatDisplay(t time.Time) string {
	return t.Local().Format(DisplayLayout)
}
