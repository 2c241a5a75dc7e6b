package person

import (
	"time"
)

// MergedEvent is published after a merge has been committed.
type MergedEvent struct {
	SurvivorID int64
	MergedID   int64
	Attributes []string
	MergedAt   time.Time
}
