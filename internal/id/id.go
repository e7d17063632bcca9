// Package id generates record identifiers.
package id

import (
	"time"

	"github.com/google/uuid"
)

// occurrenceNamespace scopes name-based ids of archived occurrences.
var occurrenceNamespace = uuid.MustParse("6f3b2c1e-8a4d-4e2f-9b7a-0c5d1e2f3a4b")

// New returns a time-ordered (v7) UUID string for a new record.
func New() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

// Occurrence returns the id of the archived record split from parentID on
// date. The same inputs always give the same id, so re-archiving an
// occurrence overwrites instead of duplicating.
func Occurrence(parentID string, date time.Time) string {
	name := parentID + "@" + date.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(occurrenceNamespace, []byte(name)).String()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Short returns the first 8 characters of an id for display.
func Short(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}
