package person

import (
	"strings"
	"time"

	"github.com/iota-uz/estate-office/pkg/constants"
)

type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexDiverse Sex = "diverse"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexDiverse:
		return true
	default:
		return false
	}
}

// Date is a calendar day without time of day; it marshals as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(constants.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(constants.DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Person struct {
	id        int64
	name      *string
	firstName *string
	birthday  *Date
	sex       *Sex
	createdAt time.Time
	updatedAt time.Time
}

// New builds an unsaved person from the fields present in attrs.
func New(attrs Attributes) Person {
	return Person{}.Apply(attrs)
}

func Hydrate(
	id int64,
	name *string,
	firstName *string,
	birthday *Date,
	sex *Sex,
	createdAt time.Time,
	updatedAt time.Time,
) Person {
	return Person{
		id:        id,
		name:      name,
		firstName: firstName,
		birthday:  birthday,
		sex:       sex,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (p Person) ID() int64            { return p.id }
func (p Person) Name() *string        { return p.name }
func (p Person) FirstName() *string   { return p.firstName }
func (p Person) Birthday() *Date      { return p.birthday }
func (p Person) Sex() *Sex            { return p.sex }
func (p Person) CreatedAt() time.Time { return p.createdAt }
func (p Person) UpdatedAt() time.Time { return p.updatedAt }
func (p Person) IsZero() bool         { return p.id == 0 }

// Apply overwrites the fields present in attrs and leaves the rest alone.
func (p Person) Apply(attrs Attributes) Person {
	if attrs.Name.Set {
		p.name = attrs.Name.Value
	}
	if attrs.FirstName.Set {
		p.firstName = attrs.FirstName.Value
	}
	if attrs.Birthday.Set {
		p.birthday = attrs.Birthday.Value
	}
	if attrs.Sex.Set {
		p.sex = attrs.Sex.Value
	}
	return p
}

// Snapshot returns the audited attribute values keyed by column.
func (p Person) Snapshot() map[string]any {
	out := map[string]any{
		"name":       nil,
		"first_name": nil,
		"birthday":   nil,
		"sex":        nil,
	}
	if p.name != nil {
		out["name"] = *p.name
	}
	if p.firstName != nil {
		out["first_name"] = *p.firstName
	}
	if p.birthday != nil {
		out["birthday"] = p.birthday.String()
	}
	if p.sex != nil {
		out["sex"] = string(*p.sex)
	}
	return out
}
