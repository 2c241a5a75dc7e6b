package models

import (
	"time"
)

type Person struct {
	ID        int64
	Name      *string
	FirstName *string
	Birthday  *time.Time
	Sex       *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Detail struct {
	ID             int64
	DetailableType string
	DetailableID   int64
	Category       string
	Content        string
	Remark         *string
	CreatedAt      time.Time
}

// ContractUnit is the unit.house.property chain joined onto a contract row.
type ContractUnit struct {
	UnitID       int64
	UnitName     string
	HouseID      int64
	Street       string
	Number       *string
	PropertyID   int64
	PropertyName string
}

type RentalContract struct {
	ID       int64
	StartsOn *time.Time
	EndsOn   *time.Time
	Rent     *string
	ContractUnit
}

type PurchaseContract struct {
	ID       int64
	SignedOn *time.Time
	Price    *string
	ContractUnit
}

type Employment struct {
	ID                int64
	EmployeeID        int64
	EmployerID        int64
	JobTitleID        *int64
	JobTitle          *string
	EmployerName      *string
	EmployerFirstName *string
	EmployeeName      *string
	EmployeeFirstName *string
}

type Audit struct {
	ID            int64
	AuditableType string
	AuditableID   int64
	UserID        *int64
	Event         string
	OldValues     []byte
	NewValues     []byte
	Diff          []byte
	CreatedAt     time.Time
	UserName      *string
	UserEmail     *string
}

type Credential struct {
	ID        int64
	PersonID  int64
	Username  string
	CreatedAt time.Time
	DeletedAt *time.Time
}
