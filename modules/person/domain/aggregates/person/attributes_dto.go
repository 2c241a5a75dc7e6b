package person

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/estate-office/pkg/constants"
	"github.com/iota-uz/estate-office/pkg/serrors"
)

var ErrInvalidJSON = errors.New("request body is not a JSON object")

// AttributesDTO is the format-checked view of a request body. Nil pointers
// are absent or null keys; presence itself is kept in Attributes.
type AttributesDTO struct {
	Name      *string `json:"name" validate:"omitempty,max=255"`
	FirstName *string `json:"first_name" validate:"omitempty,max=255"`
	Birthday  *string `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Sex       *string `json:"sex" validate:"omitempty,oneof=male female diverse"`
}

var dtoFieldNames = map[string]string{
	"Name":      "name",
	"FirstName": "first_name",
	"Birthday":  "birthday",
	"Sex":       "sex",
}

// ParseAttributes keeps only whitelisted keys of body. It returns
// ErrInvalidJSON for malformed input and serrors.ValidationErrors for values
// of the wrong type or format.
func ParseAttributes(body []byte) (Attributes, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Attributes{}, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Attributes{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var dto AttributesDTO
	present := map[string]bool{}
	typeErrs := serrors.ValidationErrors{}
	targets := map[string]**string{
		"name":       &dto.Name,
		"first_name": &dto.FirstName,
		"birthday":   &dto.Birthday,
		"sex":        &dto.Sex,
	}
	for _, key := range Whitelist {
		v, ok := raw[key]
		if !ok {
			continue
		}
		present[key] = true
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			typeErrs[key] = key + " must be a string"
			continue
		}
		*targets[key] = &s
	}
	if len(typeErrs) > 0 {
		return Attributes{}, typeErrs
	}

	if err := dto.Ok(); err != nil {
		return Attributes{}, err
	}
	return dto.Attributes(present), nil
}

func (d *AttributesDTO) Normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(d.Name)
	trim(d.FirstName)
	trim(d.Birthday)
	trim(d.Sex)
}

// Ok validates formats and returns serrors.ValidationErrors on failure.
func (d *AttributesDTO) Ok() error {
	d.Normalize()
	errs := constants.Validate.Struct(d)
	if errs == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(errs, &validatorErrs) {
		return errs
	}
	return serrors.ProcessValidatorErrors(validatorErrs, func(field string) string {
		return dtoFieldNames[field]
	})
}

// Attributes converts a validated dto; present marks keys seen in the input.
func (d *AttributesDTO) Attributes(present map[string]bool) Attributes {
	var a Attributes
	if present["name"] {
		a.Name = Field[string]{Set: true, Value: d.Name}
	}
	if present["first_name"] {
		a.FirstName = Field[string]{Set: true, Value: d.FirstName}
	}
	if present["birthday"] {
		a.Birthday = Null[Date]()
		if d.Birthday != nil {
			if parsed, err := ParseDate(*d.Birthday); err == nil {
				a.Birthday = Present(parsed)
			}
		}
	}
	if present["sex"] {
		a.Sex = Null[Sex]()
		if d.Sex != nil {
			a.Sex = Present(Sex(*d.Sex))
		}
	}
	return a
}
