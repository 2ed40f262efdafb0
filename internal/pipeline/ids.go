package pipeline

import (
	"github.com/google/uuid"
)

// IDGenerator names disposable copies.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random (version 4) UUIDs.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate returns a new hyphenated UUID.
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}
