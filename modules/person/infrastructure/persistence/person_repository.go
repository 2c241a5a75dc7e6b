package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/infrastructure/persistence/models"
	"github.com/iota-uz/estate-office/pkg/composables"
)

const personColumns = "id, name, first_name, birthday, sex, created_at, updated_at"

const (
	selectPersonQuery = `SELECT ` + personColumns + ` FROM persons WHERE id = $1`

	existsPersonQuery = `SELECT EXISTS (SELECT 1 FROM persons WHERE id = $1)`

	insertPersonQuery = `
		INSERT INTO persons (name, first_name, birthday, sex)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + personColumns
)

type PersonRepository struct{}

func NewPersonRepository() person.Repository {
	return &PersonRepository{}
}

func (r *PersonRepository) GetByID(ctx context.Context, id int64) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	row, err := scanPerson(tx.QueryRow(ctx, selectPersonQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, gerrors.Wrap(err, "get person")
	}
	return toDomainPerson(row), nil
}

func (r *PersonRepository) Exists(ctx context.Context, id int64) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := tx.QueryRow(ctx, existsPersonQuery, id).Scan(&exists); err != nil {
		return false, gerrors.Wrap(err, "check person exists")
	}
	return exists, nil
}

func (r *PersonRepository) Create(ctx context.Context, p person.Person) (person.Person, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}
	dbRow := toDBPerson(p)
	row, err := scanPerson(tx.QueryRow(
		ctx,
		insertPersonQuery,
		dbRow.Name,
		dbRow.FirstName,
		dbRow.Birthday,
		dbRow.Sex,
	))
	if err != nil {
		return person.Person{}, gerrors.Wrap(err, "create person")
	}
	return toDomainPerson(row), nil
}

func (r *PersonRepository) Update(ctx context.Context, id int64, attrs person.Attributes) (person.Person, error) {
	if attrs.IsEmpty() {
		return r.GetByID(ctx, id)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return person.Person{}, err
	}

	cols, args := attrs.Columns()
	set := make([]string, 0, len(cols)+1)
	for i, col := range cols {
		set = append(set, fmt.Sprintf("%s = $%d", col, i+1))
	}
	set = append(set, "updated_at = now()")
	args = append(args, id)

	query := `UPDATE persons SET ` + strings.Join(set, ", ") +
		fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args)) + personColumns

	row, err := scanPerson(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return person.Person{}, person.ErrNotFound
		}
		return person.Person{}, gerrors.Wrap(err, "update person")
	}
	return toDomainPerson(row), nil
}

func scanPerson(row pgx.Row) (models.Person, error) {
	var p models.Person
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.FirstName,
		&p.Birthday,
		&p.Sex,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
