package viewmodels

import (
	"time"
)

type Person struct {
	ID        int64     `json:"id"`
	Name      *string   `json:"name"`
	FirstName *string   `json:"first_name"`
	Birthday  *string   `json:"birthday"`
	Sex       *string   `json:"sex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MergeAccepted struct {
	Status string `json:"status"`
}
