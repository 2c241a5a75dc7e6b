package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/pkg/composables"
)

const (
	lockPersonsQuery = `SELECT ` + personColumns + ` FROM persons WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	leftHasCredentialQuery = `
		SELECT EXISTS (SELECT 1 FROM credentials WHERE person_id = $1 AND deleted_at IS NULL)`

	trashRightCredentialQuery = `
		UPDATE credentials SET deleted_at = now()
		WHERE person_id = $1 AND deleted_at IS NULL`

	deletePersonQuery = `DELETE FROM persons WHERE id = $1`
)

// reassignStatements move every row owned by right ($2) to left ($1).
// Polymorphic tables are scoped by the morph key ($3); cleanup statements
// take right alone as $1.
var reassignStatements = []struct {
	name        string
	sql         string
	polymorphic bool
	rightOnly   bool
}{
	{name: "details", polymorphic: true, sql: `
		UPDATE details SET detailable_id = $1
		WHERE detailable_type = $3 AND detailable_id = $2`},
	{name: "notifications", polymorphic: true, sql: `
		UPDATE notifications SET notifiable_id = $1
		WHERE notifiable_type = $3 AND notifiable_id = $2`},
	{name: "audits", polymorphic: true, sql: `
		UPDATE audits SET auditable_id = $1
		WHERE auditable_type = $3 AND auditable_id = $2`},
	{name: "person_roles", sql: `
		INSERT INTO person_roles (person_id, role_id)
		SELECT $1, role_id FROM person_roles WHERE person_id = $2
		ON CONFLICT DO NOTHING`},
	{name: "person_roles", rightOnly: true, sql: `DELETE FROM person_roles WHERE person_id = $1`},
	{name: "rental_contract_persons", sql: `
		INSERT INTO rental_contract_persons (rental_contract_id, person_id)
		SELECT rental_contract_id, $1 FROM rental_contract_persons WHERE person_id = $2
		ON CONFLICT DO NOTHING`},
	{name: "rental_contract_persons", rightOnly: true, sql: `DELETE FROM rental_contract_persons WHERE person_id = $1`},
	{name: "purchase_contract_persons", sql: `
		INSERT INTO purchase_contract_persons (purchase_contract_id, person_id)
		SELECT purchase_contract_id, $1 FROM purchase_contract_persons WHERE person_id = $2
		ON CONFLICT DO NOTHING`},
	{name: "purchase_contract_persons", rightOnly: true, sql: `DELETE FROM purchase_contract_persons WHERE person_id = $1`},
	{name: "employments", sql: `UPDATE employments SET employee_id = $1 WHERE employee_id = $2`},
	{name: "employments", sql: `UPDATE employments SET employer_id = $1 WHERE employer_id = $2`},
}

type MergeRepository struct {
	personType string
	persons    person.Repository
}

func NewMergeRepository(personType string, persons person.Repository) person.MergeRepository {
	return &MergeRepository{
		personType: personType,
		persons:    persons,
	}
}

func (r *MergeRepository) Merge(ctx context.Context, cmd person.MergeCommand) (person.MergeResult, error) {
	if cmd.LeftID == cmd.RightID {
		return person.MergeResult{}, person.ErrMergeSame
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.MergeResult{}, err
	}

	rows, err := tx.Query(ctx, lockPersonsQuery, []int64{cmd.LeftID, cmd.RightID})
	if err != nil {
		return person.MergeResult{}, gerrors.Wrap(err, "lock persons")
	}
	locked := map[int64]person.Person{}
	for rows.Next() {
		row, err := scanPerson(rows)
		if err != nil {
			rows.Close()
			return person.MergeResult{}, gerrors.Wrap(err, "scan locked person")
		}
		locked[row.ID] = toDomainPerson(row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return person.MergeResult{}, gerrors.Wrap(err, "lock persons")
	}
	left, okLeft := locked[cmd.LeftID]
	right, okRight := locked[cmd.RightID]
	if !okLeft || !okRight {
		return person.MergeResult{}, person.ErrNotFound
	}

	for _, stmt := range reassignStatements {
		args := []any{cmd.LeftID, cmd.RightID}
		switch {
		case stmt.rightOnly:
			args = []any{cmd.RightID}
		case stmt.polymorphic:
			args = append(args, r.personType)
		}
		if _, err := tx.Exec(ctx, stmt.sql, args...); err != nil {
			return person.MergeResult{}, gerrors.Wrapf(err, "reassign %s", stmt.name)
		}
	}

	var leftHasCredential bool
	if err := tx.QueryRow(ctx, leftHasCredentialQuery, cmd.LeftID).Scan(&leftHasCredential); err != nil {
		return person.MergeResult{}, gerrors.Wrap(err, "check credential")
	}
	if leftHasCredential {
		if _, err := tx.Exec(ctx, trashRightCredentialQuery, cmd.RightID); err != nil {
			return person.MergeResult{}, gerrors.Wrap(err, "trash credential")
		}
	}
	// Trashed rows move as well so they survive the delete below.
	if _, err := tx.Exec(ctx, `UPDATE credentials SET person_id = $1 WHERE person_id = $2`, cmd.LeftID, cmd.RightID); err != nil {
		return person.MergeResult{}, gerrors.Wrap(err, "move credentials")
	}

	survivor, err := r.persons.Update(ctx, cmd.LeftID, cmd.Attributes)
	if err != nil {
		return person.MergeResult{}, gerrors.Wrap(err, "apply attributes")
	}
	if _, err := tx.Exec(ctx, deletePersonQuery, cmd.RightID); err != nil {
		return person.MergeResult{}, gerrors.Wrap(err, "delete merged person")
	}

	return person.MergeResult{
		Before:          left,
		Survivor:        survivor,
		Merged:          right,
		CredentialMoved: !leftHasCredential,
	}, nil
}
