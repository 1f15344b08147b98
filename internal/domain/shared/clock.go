package shared

import (
	"time"

	"github.com/google/uuid"
)

// Clock is the current-time source consumed for timestamp stamping
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now
func (SystemClock) Now() time.Time {
	return time.Now()
}

// IDGenerator produces unique identifiers for system-generated records
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random (v4) UUID strings
type UUIDGenerator struct{}

// NewID returns a new random UUID string
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
