package person

import (
	"bytes"
	"encoding/json"
)

// Field carries a presence bit next to the value: Set with a nil Value is an
// explicit null, an unset Field was absent from the input.
type Field[T any] struct {
	Set   bool
	Value *T
}

func Present[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// Whitelist is the accepted input on create, update and merge. sex is
// written only when the request carries it, like every other key.
var Whitelist = []string{"name", "first_name", "birthday", "sex"}

type Attributes struct {
	Name      Field[string]
	FirstName Field[string]
	Birthday  Field[Date]
	Sex       Field[Sex]
}

func (a Attributes) IsEmpty() bool {
	return !a.Name.Set && !a.FirstName.Set && !a.Birthday.Set && !a.Sex.Set
}

// Keys lists the present attributes in whitelist order.
func (a Attributes) Keys() []string {
	var out []string
	if a.Name.Set {
		out = append(out, "name")
	}
	if a.FirstName.Set {
		out = append(out, "first_name")
	}
	if a.Birthday.Set {
		out = append(out, "birthday")
	}
	if a.Sex.Set {
		out = append(out, "sex")
	}
	return out
}

// Columns returns the present columns with their SQL values.
func (a Attributes) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	if a.Name.Set {
		cols = append(cols, "name")
		vals = append(vals, a.Name.Value)
	}
	if a.FirstName.Set {
		cols = append(cols, "first_name")
		vals = append(vals, a.FirstName.Value)
	}
	if a.Birthday.Set {
		cols = append(cols, "birthday")
		if a.Birthday.Value == nil {
			vals = append(vals, nil)
		} else {
			vals = append(vals, a.Birthday.Value.Time)
		}
	}
	if a.Sex.Set {
		cols = append(cols, "sex")
		if a.Sex.Value == nil {
			vals = append(vals, nil)
		} else {
			vals = append(vals, string(*a.Sex.Value))
		}
	}
	return cols, vals
}

// MarshalJSON writes only present keys, keeping null distinct from absent
// when attributes travel inside a job payload.
func (a Attributes) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if a.Name.Set {
		m["name"] = a.Name.Value
	}
	if a.FirstName.Set {
		m["first_name"] = a.FirstName.Value
	}
	if a.Birthday.Set {
		m["birthday"] = a.Birthday.Value
	}
	if a.Sex.Set {
		m["sex"] = a.Sex.Value
	}
	return json.Marshal(m)
}

func (a *Attributes) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*a = Attributes{}
	var err error
	if a.Name, err = decodeField[string](raw, "name"); err != nil {
		return err
	}
	if a.FirstName, err = decodeField[string](raw, "first_name"); err != nil {
		return err
	}
	if a.Birthday, err = decodeField[Date](raw, "birthday"); err != nil {
		return err
	}
	if a.Sex, err = decodeField[Sex](raw, "sex"); err != nil {
		return err
	}
	return nil
}

func decodeField[T any](raw map[string]json.RawMessage, key string) (Field[T], error) {
	v, ok := raw[key]
	if !ok {
		return Field[T]{}, nil
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return Null[T](), nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return Field[T]{}, err
	}
	return Present(out), nil
}
