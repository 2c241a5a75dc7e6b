package role

import (
	"context"
)

type Role struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type Repository interface {
	ListByPerson(ctx context.Context, personID int64) ([]Role, error)
	// ListByPersons returns the roles of every given person, keyed by person id.
	ListByPersons(ctx context.Context, personIDs []int64) (map[int64][]Role, error)
}
