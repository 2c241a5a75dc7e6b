package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/estate-office/modules/person/domain/entities/role"
	"github.com/iota-uz/estate-office/pkg/composables"
)

const (
	personRolesQuery = `
		SELECT r.id, r.name, r.description
		FROM roles r
		JOIN person_roles pr ON pr.role_id = r.id
		WHERE pr.person_id = $1
		ORDER BY r.name, r.id`

	personsRolesQuery = `
		SELECT pr.person_id, r.id, r.name, r.description
		FROM roles r
		JOIN person_roles pr ON pr.role_id = r.id
		WHERE pr.person_id = ANY($1)
		ORDER BY pr.person_id, r.name, r.id`
)

type RoleRepository struct{}

func NewRoleRepository() role.Repository {
	return &RoleRepository{}
}

func (r *RoleRepository) ListByPerson(ctx context.Context, personID int64) ([]role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, personRolesQuery, personID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list person roles")
	}
	defer rows.Close()

	out := make([]role.Role, 0)
	for rows.Next() {
		var item role.Role
		if err := rows.Scan(&item.ID, &item.Name, &item.Description); err != nil {
			return nil, gerrors.Wrap(err, "scan role")
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate roles")
	}
	return out, nil
}

func (r *RoleRepository) ListByPersons(ctx context.Context, personIDs []int64) (map[int64][]role.Role, error) {
	out := make(map[int64][]role.Role, len(personIDs))
	if len(personIDs) == 0 {
		return out, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, personsRolesQuery, personIDs)
	if err != nil {
		return nil, gerrors.Wrap(err, "list roles of persons")
	}
	defer rows.Close()

	for rows.Next() {
		var personID int64
		var item role.Role
		if err := rows.Scan(&personID, &item.ID, &item.Name, &item.Description); err != nil {
			return nil, gerrors.Wrap(err, "scan role")
		}
		out[personID] = append(out[personID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate roles")
	}
	return out, nil
}
