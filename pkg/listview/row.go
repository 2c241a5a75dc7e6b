package listview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/estate-office/pkg/constants"
)

type Field struct {
	Key   string
	Value any
}

// Row is an index row whose JSON keys keep column order.
type Row []Field

func (r Row) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (r Row) ID() (int64, bool) {
	v, ok := r.Get("id")
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case int64:
		return id, true
	case int32:
		return int64(id), true
	case int:
		return int64(id), true
	default:
		return 0, false
	}
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("listview: field %q: %w", f.Key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// formatValue turns a driver value into its JSON-facing shape.
func formatValue(c Column, v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		if c.Type == TypeDate {
			return val.Format(constants.DateLayout)
		}
		return val.UTC().Format(time.RFC3339)
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return v
	}
}
