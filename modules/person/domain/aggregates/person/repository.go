package person

import (
	"context"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (Person, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, p Person) (Person, error)
	// Update writes only the present attributes and returns the stored row.
	Update(ctx context.Context, id int64, attrs Attributes) (Person, error)
}

type GraphRepository interface {
	Load(ctx context.Context, p Person) (Graph, error)
}

type MergeRepository interface {
	// Merge folds right into left inside the caller's transaction.
	Merge(ctx context.Context, cmd MergeCommand) (MergeResult, error)
}

type MergeCommand struct {
	LeftID     int64
	RightID    int64
	Attributes Attributes
}

type MergeResult struct {
	// Before is the left person as locked, ahead of any change.
	Before   Person
	Survivor Person
	Merged   Person
	// CredentialMoved reports whether the right credential now belongs to left.
	CredentialMoved bool
}
