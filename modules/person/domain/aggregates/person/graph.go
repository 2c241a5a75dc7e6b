package person

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/estate-office/modules/person/domain/entities/audit"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/role"
)

const (
	CategoryPhone   = "phone"
	CategoryEmail   = "email"
	CategoryFax     = "fax"
	CategoryAddress = "address"
	CategoryNote    = "note"
)

// KnownCategories are the detail categories exposed as dedicated relations;
// every other category lands in common_details.
var KnownCategories = []string{
	CategoryPhone,
	CategoryEmail,
	CategoryFax,
	CategoryAddress,
	CategoryNote,
}

type Detail struct {
	ID             int64     `json:"id"`
	DetailableType string    `json:"detailable_type"`
	DetailableID   int64     `json:"detailable_id"`
	Category       string    `json:"category"`
	Content        string    `json:"content"`
	Remark         *string   `json:"remark"`
	CreatedAt      time.Time `json:"created_at"`
}

type Property struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type House struct {
	ID         int64    `json:"id"`
	PropertyID int64    `json:"property_id"`
	Street     string   `json:"street"`
	Number     *string  `json:"number"`
	Property   Property `json:"property"`
}

type Unit struct {
	ID      int64  `json:"id"`
	HouseID int64  `json:"house_id"`
	Name    string `json:"name"`
	House   House  `json:"house"`
}

type RentalContract struct {
	ID       int64               `json:"id"`
	UnitID   int64               `json:"unit_id"`
	StartsOn *Date               `json:"starts_on"`
	EndsOn   *Date               `json:"ends_on"`
	Rent     decimal.NullDecimal `json:"rent"`
	Unit     Unit                `json:"unit"`
}

type PurchaseContract struct {
	ID       int64               `json:"id"`
	UnitID   int64               `json:"unit_id"`
	SignedOn *Date               `json:"signed_on"`
	Price    decimal.NullDecimal `json:"price"`
	Unit     Unit                `json:"unit"`
}

type JobTitle struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PersonRef is the short form of a person nested inside another relation.
type PersonRef struct {
	ID        int64   `json:"id"`
	Name      *string `json:"name"`
	FirstName *string `json:"first_name"`
}

type Employment struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	EmployerID int64     `json:"employer_id"`
	JobTitleID *int64    `json:"job_title_id"`
	Title      *JobTitle `json:"title"`
	Employer   PersonRef `json:"employer"`
	Employee   PersonRef `json:"employee"`
}

type Credential struct {
	ID        int64      `json:"id"`
	PersonID  int64      `json:"person_id"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// Graph is a person with every relation of the detail view loaded.
type Graph struct {
	Person            Person
	Phones            []Detail
	Emails            []Detail
	Faxes             []Detail
	Addresses         []Detail
	Notes             []Detail
	CommonDetails     []Detail
	RentalContracts   []RentalContract
	PurchaseContracts []PurchaseContract
	JobsAsEmployee    []Employment
	Roles             []role.Role
	Audits            []audit.Audit
	Credential        *Credential
}

// AddDetail sorts d into the relation its category belongs to.
func (g *Graph) AddDetail(d Detail) {
	switch d.Category {
	case CategoryPhone:
		g.Phones = append(g.Phones, d)
	case CategoryEmail:
		g.Emails = append(g.Emails, d)
	case CategoryFax:
		g.Faxes = append(g.Faxes, d)
	case CategoryAddress:
		g.Addresses = append(g.Addresses, d)
	case CategoryNote:
		g.Notes = append(g.Notes, d)
	default:
		g.CommonDetails = append(g.CommonDetails, d)
	}
}

func (g Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID                int64              `json:"id"`
		Name              *string            `json:"name"`
		FirstName         *string            `json:"first_name"`
		Birthday          *Date              `json:"birthday"`
		Sex               *Sex               `json:"sex"`
		CreatedAt         time.Time          `json:"created_at"`
		UpdatedAt         time.Time          `json:"updated_at"`
		Phones            []Detail           `json:"phones"`
		Emails            []Detail           `json:"emails"`
		Faxes             []Detail           `json:"faxes"`
		Addresses         []Detail           `json:"addresses"`
		Notes             []Detail           `json:"notes"`
		CommonDetails     []Detail           `json:"common_details"`
		RentalContracts   []RentalContract   `json:"rental_contracts"`
		PurchaseContracts []PurchaseContract `json:"purchase_contracts"`
		JobsAsEmployee    []Employment       `json:"jobs_as_employee"`
		Roles             []role.Role        `json:"roles"`
		Audits            []audit.Audit      `json:"audits"`
		Credential        *Credential        `json:"credential"`
	}{
		ID:                g.Person.ID(),
		Name:              g.Person.Name(),
		FirstName:         g.Person.FirstName(),
		Birthday:          g.Person.Birthday(),
		Sex:               g.Person.Sex(),
		CreatedAt:         g.Person.CreatedAt(),
		UpdatedAt:         g.Person.UpdatedAt(),
		Phones:            nonNil(g.Phones),
		Emails:            nonNil(g.Emails),
		Faxes:             nonNil(g.Faxes),
		Addresses:         nonNil(g.Addresses),
		Notes:             nonNil(g.Notes),
		CommonDetails:     nonNil(g.CommonDetails),
		RentalContracts:   nonNil(g.RentalContracts),
		PurchaseContracts: nonNil(g.PurchaseContracts),
		JobsAsEmployee:    nonNil(g.JobsAsEmployee),
		Roles:             nonNil(g.Roles),
		Audits:            nonNil(g.Audits),
		Credential:        g.Credential,
	})
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
