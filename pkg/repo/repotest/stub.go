// Package repotest provides in-memory fakes of repo.Tx for repository tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Call struct {
	SQL  string
	Args []any
}

// StubTx records every statement and answers through the optional funcs.
type StubTx struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	Calls []Call
}

func (s *StubTx) record(sql string, args []any) {
	s.Calls = append(s.Calls, Call{SQL: sql, Args: args})
}

func (s *StubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("copy not implemented")
}

func (s *StubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	var results pgx.BatchResults
	return results
}

func (s *StubTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.record(sql, args)
	if s.ExecFunc == nil {
		return pgconn.CommandTag{}, nil
	}
	return s.ExecFunc(ctx, sql, args...)
}

func (s *StubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.record(sql, args)
	if s.QueryFunc == nil {
		return &StubRows{}, nil
	}
	return s.QueryFunc(ctx, sql, args...)
}

func (s *StubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.record(sql, args)
	if s.QueryRowFunc == nil {
		return StubRow{Err: errors.New("query row not implemented")}
	}
	return s.QueryRowFunc(ctx, sql, args...)
}

// StubRows serves Data row by row. Fields names the columns for Values
// based consumers.
type StubRows struct {
	Fields []string
	Data   [][]any
	Error  error

	idx int
}

func (r *StubRows) Next() bool {
	if r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *StubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.Data) {
		return errors.New("no current row to scan")
	}
	return assign(dest, r.Data[r.idx-1])
}

func (r *StubRows) Values() ([]any, error) {
	if r.idx == 0 || r.idx > len(r.Data) {
		return nil, errors.New("no current row")
	}
	return r.Data[r.idx-1], nil
}

func (r *StubRows) RawValues() [][]byte           { return nil }
func (r *StubRows) Err() error                    { return r.Error }
func (r *StubRows) Close()                        {}
func (r *StubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *StubRows) Conn() *pgx.Conn               { return nil }

func (r *StubRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.Fields))
	for i, name := range r.Fields {
		out[i] = pgconn.FieldDescription{Name: name}
	}
	return out
}

// StubRow answers a single QueryRow. Err wins over Values.
type StubRow struct {
	Values []any
	Err    error
}

func (r StubRow) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(dest, r.Values)
}

// Row is shorthand for a QueryRowFunc result.
func Row(values ...any) pgx.Row {
	return StubRow{Values: values}
}

// NoRows mimics a QueryRow that matched nothing.
func NoRows() pgx.Row {
	return StubRow{Err: pgx.ErrNoRows}
}

// Tag builds a command tag such as "UPDATE 3".
func Tag(s string) pgconn.CommandTag {
	return pgconn.NewCommandTag(s)
}

func assign(dest []any, row []any) error {
	if len(dest) != len(row) {
		return fmt.Errorf("destination length %d does not match row length %d", len(dest), len(row))
	}
	for i, target := range dest {
		if err := assignOne(target, row[i]); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

func assignOne(target, value any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return fmt.Errorf("scan target %T is not a pointer", target)
	}
	dst := ptr.Elem()
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	src := reflect.ValueOf(value)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()):
		dst.Set(src.Convert(dst.Type()))
	case dst.Kind() == reflect.Ptr && src.Type().AssignableTo(dst.Type().Elem()):
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(src)
		dst.Set(p)
	case dst.Kind() == reflect.Ptr && src.Type().ConvertibleTo(dst.Type().Elem()):
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(src.Convert(dst.Type().Elem()))
		dst.Set(p)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, target)
	}
	return nil
}
