package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/audit"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/role"
	"github.com/iota-uz/estate-office/modules/person/infrastructure/persistence/models"
	"github.com/iota-uz/estate-office/pkg/composables"
)

const (
	personDetailsQuery = `
		SELECT id, detailable_type, detailable_id, category, content, remark, created_at
		FROM details
		WHERE detailable_type = $1 AND detailable_id = $2
		ORDER BY id`

	rentalContractsQuery = `
		SELECT rc.id, rc.starts_on, rc.ends_on, rc.rent::text,
		       u.id, u.name, h.id, h.street, h.number, p.id, p.name
		FROM rental_contracts rc
		JOIN rental_contract_persons rcp ON rcp.rental_contract_id = rc.id
		JOIN units u ON u.id = rc.unit_id
		JOIN houses h ON h.id = u.house_id
		JOIN properties p ON p.id = h.property_id
		WHERE rcp.person_id = $1
		ORDER BY rc.id`

	purchaseContractsQuery = `
		SELECT pc.id, pc.signed_on, pc.price::text,
		       u.id, u.name, h.id, h.street, h.number, p.id, p.name
		FROM purchase_contracts pc
		JOIN purchase_contract_persons pcp ON pcp.purchase_contract_id = pc.id
		JOIN units u ON u.id = pc.unit_id
		JOIN houses h ON h.id = u.house_id
		JOIN properties p ON p.id = h.property_id
		WHERE pcp.person_id = $1
		ORDER BY pc.id`

	employmentsQuery = `
		SELECT e.id, e.employee_id, e.employer_id, e.job_title_id, jt.name,
		       er.name, er.first_name, ee.name, ee.first_name
		FROM employments e
		LEFT JOIN job_titles jt ON jt.id = e.job_title_id
		JOIN persons er ON er.id = e.employer_id
		JOIN persons ee ON ee.id = e.employee_id
		WHERE e.employee_id = $1
		ORDER BY e.id`

	// Soft-deleted credentials are included; an active one wins.
	credentialQuery = `
		SELECT id, person_id, username, created_at, deleted_at
		FROM credentials
		WHERE person_id = $1
		ORDER BY deleted_at IS NULL DESC, id DESC
		LIMIT 1`
)

type GraphRepository struct {
	personType string
	roles      role.Repository
	audits     audit.Repository
}

func NewGraphRepository(personType string, roles role.Repository, audits audit.Repository) person.GraphRepository {
	return &GraphRepository{
		personType: personType,
		roles:      roles,
		audits:     audits,
	}
}

func (r *GraphRepository) Load(ctx context.Context, p person.Person) (person.Graph, error) {
	g := person.Graph{Person: p}
	steps := []struct {
		name string
		fn   func(context.Context, *person.Graph) error
	}{
		{"details", r.loadDetails},
		{"rental_contracts", r.loadRentalContracts},
		{"purchase_contracts", r.loadPurchaseContracts},
		{"jobs_as_employee", r.loadEmployments},
		{"credential", r.loadCredential},
	}
	for _, step := range steps {
		if err := step.fn(ctx, &g); err != nil {
			return person.Graph{}, gerrors.Wrapf(err, "load %s", step.name)
		}
	}

	roles, err := r.roles.ListByPerson(ctx, p.ID())
	if err != nil {
		return person.Graph{}, gerrors.Wrap(err, "load roles")
	}
	g.Roles = roles

	audits, err := r.audits.ListFor(ctx, r.personType, p.ID())
	if err != nil {
		return person.Graph{}, gerrors.Wrap(err, "load audits")
	}
	g.Audits = audits
	return g, nil
}

func (r *GraphRepository) loadDetails(ctx context.Context, g *person.Graph) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, personDetailsQuery, r.personType, g.Person.ID())
	if err != nil {
		return err
	}
	defer rows.Close()

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
			return err
		}
		g.AddDetail(toDomainDetail(row))
	}
	return rows.Err()
}

func (r *GraphRepository) loadRentalContracts(ctx context.Context, g *person.Graph) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, rentalContractsQuery, g.Person.ID())
	if err != nil {
		return err
	}
	defer rows.Close()

	g.RentalContracts = make([]person.RentalContract, 0)
	for rows.Next() {
		var row models.RentalContract
		if err := rows.Scan(
			&row.ID,
			&row.StartsOn,
			&row.EndsOn,
			&row.Rent,
			&row.UnitID,
			&row.UnitName,
			&row.HouseID,
			&row.Street,
			&row.Number,
			&row.PropertyID,
			&row.PropertyName,
		); err != nil {
			return err
		}
		contract, err := toDomainRentalContract(row)
		if err != nil {
			return err
		}
		g.RentalContracts = append(g.RentalContracts, contract)
	}
	return rows.Err()
}

func (r *GraphRepository) loadPurchaseContracts(ctx context.Context, g *person.Graph) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, purchaseContractsQuery, g.Person.ID())
	if err != nil {
		return err
	}
	defer rows.Close()

	g.PurchaseContracts = make([]person.PurchaseContract, 0)
	for rows.Next() {
		var row models.PurchaseContract
		if err := rows.Scan(
			&row.ID,
			&row.SignedOn,
			&row.Price,
			&row.UnitID,
			&row.UnitName,
			&row.HouseID,
			&row.Street,
			&row.Number,
			&row.PropertyID,
			&row.PropertyName,
		); err != nil {
			return err
		}
		contract, err := toDomainPurchaseContract(row)
		if err != nil {
			return err
		}
		g.PurchaseContracts = append(g.PurchaseContracts, contract)
	}
	return rows.Err()
}

func (r *GraphRepository) loadEmployments(ctx context.Context, g *person.Graph) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows, err := tx.Query(ctx, employmentsQuery, g.Person.ID())
	if err != nil {
		return err
	}
	defer rows.Close()

	g.JobsAsEmployee = make([]person.Employment, 0)
	for rows.Next() {
		var row models.Employment
		if err := rows.Scan(
			&row.ID,
			&row.EmployeeID,
			&row.EmployerID,
			&row.JobTitleID,
			&row.JobTitle,
			&row.EmployerName,
			&row.EmployerFirstName,
			&row.EmployeeName,
			&row.EmployeeFirstName,
		); err != nil {
			return err
		}
		g.JobsAsEmployee = append(g.JobsAsEmployee, toDomainEmployment(row))
	}
	return rows.Err()
}

func (r *GraphRepository) loadCredential(ctx context.Context, g *person.Graph) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	var row models.Credential
	err = tx.QueryRow(ctx, credentialQuery, g.Person.ID()).Scan(
		&row.ID,
		&row.PersonID,
		&row.Username,
		&row.CreatedAt,
		&row.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	g.Credential = toDomainCredential(row)
	return nil
}
