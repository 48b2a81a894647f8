package transport

import (
	"strings"

	"github.com/google/uuid"
)

// newCorrelationID returns a short opaque request id. Spec §6 requires an
// "8-character opaque id drawn from a random source"; a UUIDv4 (via
// google/uuid) truncated to its first 8 hex characters keeps collisions
// astronomically unlikely without hand-rolling an encoding.
func newCorrelationID() string {
	id := uuid.New().String()
	return strings.ReplaceAll(id, "-", "")[:8]
}
