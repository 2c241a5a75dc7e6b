package listview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/estate-office/pkg/composables"
	"github.com/iota-uz/estate-office/pkg/constants"
	"github.com/iota-uz/estate-office/pkg/repo/repotest"
)

const personsYAML = `
key: persons
route: PersonAPIController@Index
model: person
table: persons p
columns:
  - {name: id, expr: p.id, type: integer, sortable: true, filterable: true, default: true}
  - {name: name, expr: p.name, sortable: true, filterable: true, searchable: true, default: true}
  - {name: first_name, expr: p.first_name, sortable: true, searchable: true, default: true}
  - {name: birthday, expr: p.birthday, type: date, sortable: true, filterable: true}
  - {name: sex, expr: p.sex, type: enum, values: [male, female, diverse], filterable: true}
relations: [roles, phones]
default_sort: name
per_page: 10
max_per_page: 50
`

func testDefinition(t *testing.T) *Definition {
	t.Helper()
	d, err := ParseDefinition([]byte(personsYAML))
	require.NoError(t, err)
	return d
}

func testService(t *testing.T) *Service {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(testDefinition(t)))
	return NewService(reg, Options{PageSize: 25, MaxPageSize: 100})
}

func TestParseDefinition_Validates(t *testing.T) {
	t.Parallel()

	d := testDefinition(t)
	c, ok := d.Column("name")
	require.True(t, ok)
	require.Equal(t, TypeString, c.Type)

	_, err := ParseDefinition([]byte("key: x\ntable: t\ncolumns: [{name: name}]"))
	require.ErrorContains(t, err, "id column")

	_, err = ParseDefinition([]byte("key: x\ntable: t\ncolumns: [{name: id}, {name: s, type: enum}]"))
	require.ErrorContains(t, err, "no values")

	_, err = ParseDefinition([]byte("key: x\ntable: t\ndefault_sort: nope\ncolumns: [{name: id}]"))
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	d := testDefinition(t)
	limits := Limits{PageSize: 25, MaxPageSize: 100}

	t.Run("defaults", func(t *testing.T) {
		q, err := ParseQuery(d, url.Values{}, limits)
		require.NoError(t, err)
		require.Equal(t, []string{"id", "name", "first_name"}, names(q.Columns))
		require.Len(t, q.Sort, 1)
		require.Equal(t, "name", q.Sort[0].Column.Name)
		require.Equal(t, 1, q.Page)
		require.Equal(t, 10, q.PerPage)
	})

	t.Run("explicit", func(t *testing.T) {
		values := url.Values{
			"columns":          {"birthday,name"},
			"sort":             {"-birthday,name"},
			"q":                {" anna "},
			"filter[sex]":      {"female"},
			"filter[birthday]": {"null"},
			"page":             {"3"},
			"per_page":         {"50"},
			"with":             {"roles"},
		}
		q, err := ParseQuery(d, values, limits)
		require.NoError(t, err)
		require.Equal(t, []string{"id", "birthday", "name"}, names(q.Columns))
		require.True(t, q.Sort[0].Desc)
		require.False(t, q.Sort[1].Desc)
		require.Equal(t, "anna", q.Search)
		require.Len(t, q.Filters, 2)
		require.True(t, q.Filters[0].IsNull)
		require.Equal(t, "female", q.Filters[1].Value)
		require.Equal(t, 100, q.Offset())
		require.Equal(t, []string{"roles"}, q.With)
	})

	t.Run("last addressable page", func(t *testing.T) {
		q, err := ParseQuery(d, url.Values{"page": {"134217728"}, "per_page": {"16"}}, limits)
		require.NoError(t, err)
		require.Equal(t, 134217727*16, q.Offset())
	})

	bad := []url.Values{
		{"columns": {"salary"}},
		{"sort": {"sex"}},
		{"filter[first_name]": {"x"}},
		{"filter[salary]": {"1"}},
		{"filter[sex]": {"other"}},
		{"filter[birthday]": {"01.02.2000"}},
		{"filter[id]": {"abc"}},
		{"per_page": {"51"}},
		{"page": {"0"}},
		{"page": {"1152921504606846977"}, "per_page": {"16"}},
		{"page": {"134217729"}, "per_page": {"16"}},
		{"with": {"audits"}},
	}
	for _, values := range bad {
		_, err := ParseQuery(d, values, limits)
		require.ErrorIs(t, err, ErrInvalidParameter, values.Encode())
	}
}

func TestBuildSelect(t *testing.T) {
	t.Parallel()

	d := testDefinition(t)
	q, err := ParseQuery(d, url.Values{
		"q":          {"50%"},
		"filter[id]": {"7"},
		"sort":       {"-name"},
	}, Limits{PageSize: 10, MaxPageSize: 10})
	require.NoError(t, err)

	sql, args := buildSelect(d, q, q.PerPage, q.Offset())
	require.Equal(t,
		`SELECT p.id AS "id", p.name AS "name", p.first_name AS "first_name" FROM persons p`+
			` WHERE p.id = $1 AND (p.name::text ILIKE $2 OR p.first_name::text ILIKE $2)`+
			` ORDER BY p.name DESC, p.id ASC LIMIT 10`,
		sql,
	)
	require.Equal(t, []any{int64(7), `%50\%%`}, args)

	countSQL, countArgs := buildCount(d, q)
	require.Equal(t, `SELECT COUNT(*) FROM persons p WHERE p.id = $1 AND (p.name::text ILIKE $2 OR p.first_name::text ILIKE $2)`, countSQL)
	require.Equal(t, args, countArgs)
}

type stubLoader struct {
	calls map[string][]int64
}

func (l *stubLoader) LoadRelation(ctx context.Context, relation string, ids []int64) (map[int64]any, error) {
	if l.calls == nil {
		l.calls = map[string][]int64{}
	}
	l.calls[relation] = ids
	return map[int64]any{1: []string{"tenant"}}, nil
}

func TestService_Calculate(t *testing.T) {
	svc := testService(t)
	birthday := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)

	tx := &repotest.StubTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "SELECT COUNT(*) FROM persons p")
			return repotest.Row(int64(12))
		},
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "LIMIT 5 OFFSET 10")
			return &repotest.StubRows{Data: [][]any{
				{int64(1), "Berger", birthday},
				{int64(2), nil, nil},
			}}, nil
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	loader := &stubLoader{}
	res, err := svc.Calculate(ctx, "persons", url.Values{
		"columns":  {"name,birthday"},
		"page":     {"3"},
		"per_page": {"5"},
		"with":     {"roles"},
	}, loader)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, loader.calls["roles"])
	require.Equal(t, Paginator{Total: 12, PerPage: 5, CurrentPage: 3, LastPage: 3, From: 11, To: 12}, res.Paginator)

	out, err := json.Marshal(Response(res, "person"))
	require.NoError(t, err)

	var decoded struct {
		Index     []json.RawMessage `json:"index"`
		Relations []string          `json:"relations"`
		Model     string            `json:"model"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, "person", decoded.Model)
	require.Equal(t, []string{"roles"}, decoded.Relations)
	require.Equal(t, `{"id":1,"name":"Berger","birthday":"1990-05-17","roles":["tenant"]}`, string(decoded.Index[0]))
	require.Equal(t, `{"id":2,"name":null,"birthday":null,"roles":[]}`, string(decoded.Index[1]))
}

func TestService_CalculateUsesPoolFallbackError(t *testing.T) {
	svc := testService(t)
	_, err := svc.Calculate(context.Background(), "persons", url.Values{}, nil)
	require.ErrorIs(t, err, composables.ErrNoPool)
}

func TestService_CalculateWrapsQueryErrors(t *testing.T) {
	svc := testService(t)
	boom := errors.New("boom")
	tx := &repotest.StubTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return repotest.StubRow{Err: boom}
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	_, err := svc.Calculate(ctx, "persons", url.Values{}, nil)
	require.ErrorIs(t, err, boom)
}

func TestService_Parameters(t *testing.T) {
	svc := testService(t)

	schema, err := svc.Parameters("PersonAPIController@Index")
	require.NoError(t, err)
	require.Equal(t, "persons", schema.Key)
	require.Equal(t, []string{"id", "name", "first_name", "birthday"}, schema.Sort.Columns)
	require.Equal(t, []string{"name", "first_name"}, schema.Search.Columns)
	require.Equal(t, []string{"id", "name", "birthday", "sex"}, schema.Filter.Columns)
	require.Equal(t, 10, schema.Pagination.PerPage)
	require.Equal(t, 50, schema.Pagination.MaxPerPage)

	_, err = svc.Parameters("Unknown@Index")
	require.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	d := testDefinition(t)
	name, _ := d.Column("name")
	id, _ := d.Column("id")
	rows := []Row{
		{{Key: "id", Value: int64(1)}, {Key: "name", Value: "Berger"}},
		{{Key: "id", Value: int64(2)}, {Key: "name", Value: nil}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "persons", []Column{id, name}, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := f.GetRows("persons")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, got[0])
	require.Equal(t, []string{"1", "Berger"}, got[1])
	require.Equal(t, "2", got[2][0])
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(testDefinition(t)))
	require.Error(t, reg.Register(testDefinition(t)))
	require.Equal(t, []string{"persons"}, reg.Keys())
	_, ok := reg.ByRoute("PersonAPIController@Index")
	require.True(t, ok)
}

func names(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
