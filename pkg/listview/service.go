package listview

import (
	"context"
	"fmt"
	"net/url"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/estate-office/pkg/composables"
)

// RelationLoader batch-loads one relation for a page of index rows.
type RelationLoader interface {
	LoadRelation(ctx context.Context, relation string, ids []int64) (map[int64]any, error)
}

type Paginator struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

func newPaginator(total int64, page, perPage, rows int) Paginator {
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	p := Paginator{Total: total, PerPage: perPage, CurrentPage: page, LastPage: last}
	if rows > 0 {
		p.From = (page-1)*perPage + 1
		p.To = p.From + rows - 1
	}
	return p
}

type Result struct {
	Columns   []Column
	Paginator Paginator
	Index     []Row
	Relations []string
}

type Options struct {
	PageSize      int
	MaxPageSize   int
	MaxExportRows int
}

type Service struct {
	registry *Registry
	opts     Options
}

func NewService(registry *Registry, opts Options) *Service {
	if opts.MaxExportRows <= 0 {
		opts.MaxExportRows = 10000
	}
	return &Service{registry: registry, opts: opts}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

func (s *Service) definition(key string) (*Definition, error) {
	d, ok := s.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("listview: no definition %q", key)
	}
	return d, nil
}

func (s *Service) limits() Limits {
	return Limits{PageSize: s.opts.PageSize, MaxPageSize: s.opts.MaxPageSize}
}

// Calculate runs the list query described by values against definition key.
// loader may be nil when the definition declares no relations.
func (s *Service) Calculate(ctx context.Context, key string, values url.Values, loader RelationLoader) (*Result, error) {
	d, err := s.definition(key)
	if err != nil {
		return nil, err
	}
	q, err := ParseQuery(d, values, s.limits())
	if err != nil {
		return nil, err
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	countSQL, countArgs := buildCount(d, q)
	var total int64
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, gerrors.Wrap(err, "listview count")
	}

	rows, err := s.fetch(ctx, d, q, q.PerPage, q.Offset())
	if err != nil {
		return nil, err
	}
	if err := attachRelations(ctx, rows, q.With, loader); err != nil {
		return nil, err
	}

	return &Result{
		Columns:   q.Columns,
		Paginator: newPaginator(total, q.Page, q.PerPage, len(rows)),
		Index:     rows,
		Relations: q.With,
	}, nil
}

// Rows runs the filtered, sorted query without pagination, capped at the
// export limit. Relations are not loaded.
func (s *Service) Rows(ctx context.Context, key string, values url.Values) ([]Column, []Row, error) {
	d, err := s.definition(key)
	if err != nil {
		return nil, nil, err
	}
	q, err := ParseQuery(d, values, s.limits())
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.fetch(ctx, d, q, s.opts.MaxExportRows, 0)
	if err != nil {
		return nil, nil, err
	}
	return q.Columns, rows, nil
}

func (s *Service) fetch(ctx context.Context, d *Definition, q Query, limit, offset int) ([]Row, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	sql, args := buildSelect(d, q, limit, offset)
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "listview select")
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, gerrors.Wrap(err, "listview values")
		}
		if len(values) != len(q.Columns) {
			return nil, gerrors.Errorf("listview: got %d values for %d columns", len(values), len(q.Columns))
		}
		row := make(Row, len(q.Columns))
		for i, c := range q.Columns {
			row[i] = Field{Key: c.Name, Value: formatValue(c, values[i])}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "listview rows")
	}
	return out, nil
}

func attachRelations(ctx context.Context, rows []Row, with []string, loader RelationLoader) error {
	if len(with) == 0 || len(rows) == 0 {
		return nil
	}
	if loader == nil {
		return gerrors.New("listview: relations requested but no loader configured")
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if id, ok := r.ID(); ok {
			ids = append(ids, id)
		}
	}
	for _, rel := range with {
		loaded, err := loader.LoadRelation(ctx, rel, ids)
		if err != nil {
			return gerrors.Wrapf(err, "listview relation %s", rel)
		}
		for i, r := range rows {
			id, _ := r.ID()
			v, ok := loaded[id]
			if !ok || v == nil {
				v = []any{}
			}
			rows[i] = append(rows[i], Field{Key: rel, Value: v})
		}
	}
	return nil
}
