package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is the unit stored in the jobs table.
type Job struct {
	ID      uuid.UUID
	Kind    string
	Payload json.RawMessage
	// RunAt delays the first attempt; zero means now.
	RunAt time.Time
}

// Meta describes a claimed job to its handler.
type Meta struct {
	ID         uuid.UUID
	Kind       string
	Attempts   int
	EnqueuedAt time.Time
}

// Delivery is what the worker hands to a Handler.
type Delivery struct {
	Meta    Meta
	Payload json.RawMessage
}

// Decode unmarshals the payload into dst. Malformed payloads never succeed
// on retry, so the error is permanent.
func (d Delivery) Decode(dst any) error {
	if err := json.Unmarshal(d.Payload, dst); err != nil {
		return Permanent(err)
	}
	return nil
}
