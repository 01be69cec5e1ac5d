package core

import (
	"time"
)

// Instead of implementing full value objects, I'm using some alias types and helper methods here ...

// RecordedAt represents when a state change was recorded.
type RecordedAt = time.Time

// LoanPeriod is the fixed duration a borrowed book may be kept before it is due.
const LoanPeriod = 14 * 24 * time.Hour

// ToRecordedAt converts a time to RecordedAt with UTC normalization and microsecond precision.
func ToRecordedAt(t time.Time) RecordedAt {
	return t.UTC().Truncate(time.Microsecond)
}
