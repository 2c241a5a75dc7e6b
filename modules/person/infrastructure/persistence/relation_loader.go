package persistence

import (
	"context"
	"fmt"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/role"
	"github.com/iota-uz/estate-office/modules/person/infrastructure/persistence/models"
	"github.com/iota-uz/estate-office/pkg/composables"
)

const phonesByPersonsQuery = `
	SELECT id, detailable_type, detailable_id, category, content, remark, created_at
	FROM details
	WHERE detailable_type = $1 AND category = $2 AND detailable_id = ANY($3)
	ORDER BY detailable_id, id`

// PersonRelationLoader loads the relations the persons list view may
// request through ?with=.
type PersonRelationLoader struct {
	personType string
	roles      role.Repository
}

func NewPersonRelationLoader(personType string, roles role.Repository) *PersonRelationLoader {
	return &PersonRelationLoader{personType: personType, roles: roles}
}

func (l *PersonRelationLoader) LoadRelation(ctx context.Context, relation string, ids []int64) (map[int64]any, error) {
	switch relation {
	case "roles":
		byPerson, err := l.roles.ListByPersons(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[int64]any, len(byPerson))
		for id, roles := range byPerson {
			out[id] = roles
		}
		return out, nil
	case "phones":
		return l.loadPhones(ctx, ids)
	default:
		return nil, fmt.Errorf("unknown person relation %q", relation)
	}
}

func (l *PersonRelationLoader) loadPhones(ctx context.Context, ids []int64) (map[int64]any, error) {
	out := map[int64]any{}
	if len(ids) == 0 {
		return out, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, phonesByPersonsQuery, l.personType, person.CategoryPhone, ids)
	if err != nil {
		return nil, gerrors.Wrap(err, "load phones")
	}
	defer rows.Close()

	phones := map[int64][]person.Detail{}
	for rows.Next() {
		var row models.Detail
		if err := rows.Scan(
			&row.ID,
			&row.DetailableType,
			&row.DetailableID,
			&row.Category,
			&row.Content,
			&row.Remark,
			&row.CreatedAt,
		); err != nil {
			return nil, gerrors.Wrap(err, "scan phone")
		}
		phones[row.DetailableID] = append(phones[row.DetailableID], toDomainDetail(row))
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate phones")
	}
	for id, list := range phones {
		out[id] = list
	}
	return out, nil
}
