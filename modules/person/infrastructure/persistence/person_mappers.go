package persistence

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/audit"
	"github.com/iota-uz/estate-office/modules/person/infrastructure/persistence/models"
)

func toDomainPerson(row models.Person) person.Person {
	var sex *person.Sex
	if row.Sex != nil {
		s := person.Sex(*row.Sex)
		sex = &s
	}
	return person.Hydrate(
		row.ID,
		row.Name,
		row.FirstName,
		toDomainDate(row.Birthday),
		sex,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

func toDBPerson(p person.Person) models.Person {
	row := models.Person{
		ID:        p.ID(),
		Name:      p.Name(),
		FirstName: p.FirstName(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
	if b := p.Birthday(); b != nil {
		t := b.Time
		row.Birthday = &t
	}
	if s := p.Sex(); s != nil {
		v := string(*s)
		row.Sex = &v
	}
	return row
}

func toDomainDate(t *time.Time) *person.Date {
	if t == nil {
		return nil
	}
	d := person.NewDate(t.Year(), t.Month(), t.Day())
	return &d
}

func toDomainDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func toDomainDetail(row models.Detail) person.Detail {
	return person.Detail{
		ID:             row.ID,
		DetailableType: row.DetailableType,
		DetailableID:   row.DetailableID,
		Category:       row.Category,
		Content:        row.Content,
		Remark:         row.Remark,
		CreatedAt:      row.CreatedAt,
	}
}

func toDomainUnit(row models.ContractUnit) person.Unit {
	return person.Unit{
		ID:      row.UnitID,
		HouseID: row.HouseID,
		Name:    row.UnitName,
		House: person.House{
			ID:         row.HouseID,
			PropertyID: row.PropertyID,
			Street:     row.Street,
			Number:     row.Number,
			Property: person.Property{
				ID:   row.PropertyID,
				Name: row.PropertyName,
			},
		},
	}
}

func toDomainRentalContract(row models.RentalContract) (person.RentalContract, error) {
	rent, err := toDomainDecimal(row.Rent)
	if err != nil {
		return person.RentalContract{}, err
	}
	return person.RentalContract{
		ID:       row.ID,
		UnitID:   row.UnitID,
		StartsOn: toDomainDate(row.StartsOn),
		EndsOn:   toDomainDate(row.EndsOn),
		Rent:     rent,
		Unit:     toDomainUnit(row.ContractUnit),
	}, nil
}

func toDomainPurchaseContract(row models.PurchaseContract) (person.PurchaseContract, error) {
	price, err := toDomainDecimal(row.Price)
	if err != nil {
		return person.PurchaseContract{}, err
	}
	return person.PurchaseContract{
		ID:       row.ID,
		UnitID:   row.UnitID,
		SignedOn: toDomainDate(row.SignedOn),
		Price:    price,
		Unit:     toDomainUnit(row.ContractUnit),
	}, nil
}

func toDomainEmployment(row models.Employment) person.Employment {
	e := person.Employment{
		ID:         row.ID,
		EmployeeID: row.EmployeeID,
		EmployerID: row.EmployerID,
		JobTitleID: row.JobTitleID,
		Employer: person.PersonRef{
			ID:        row.EmployerID,
			Name:      row.EmployerName,
			FirstName: row.EmployerFirstName,
		},
		Employee: person.PersonRef{
			ID:        row.EmployeeID,
			Name:      row.EmployeeName,
			FirstName: row.EmployeeFirstName,
		},
	}
	if row.JobTitleID != nil && row.JobTitle != nil {
		e.Title = &person.JobTitle{ID: *row.JobTitleID, Name: *row.JobTitle}
	}
	return e
}

func toDomainAudit(row models.Audit) audit.Audit {
	a := audit.Audit{
		ID:            row.ID,
		AuditableType: row.AuditableType,
		AuditableID:   row.AuditableID,
		UserID:        row.UserID,
		Event:         row.Event,
		OldValues:     rawJSON(row.OldValues),
		NewValues:     rawJSON(row.NewValues),
		Diff:          rawJSON(row.Diff),
		CreatedAt:     row.CreatedAt,
	}
	if row.UserID != nil && row.UserName != nil {
		a.User = &audit.User{ID: *row.UserID, Name: *row.UserName}
		if row.UserEmail != nil {
			a.User.Email = *row.UserEmail
		}
	}
	return a
}

func toDomainCredential(row models.Credential) *person.Credential {
	return &person.Credential{
		ID:        row.ID,
		PersonID:  row.PersonID,
		Username:  row.Username,
		CreatedAt: row.CreatedAt,
		DeletedAt: row.DeletedAt,
	}
}

// rawJSON keeps SQL NULL as JSON null.
func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}

// dbJSON maps an empty or null document to SQL NULL.
func dbJSON(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return []byte(raw)
}
