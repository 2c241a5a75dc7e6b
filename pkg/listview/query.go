package listview

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iota-uz/estate-office/pkg/constants"
	"github.com/iota-uz/estate-office/pkg/serrors"
)

var ErrInvalidParameter = serrors.NewError("LISTVIEW_INVALID_PARAMETER", "invalid list parameter", "")

func invalid(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrInvalidParameter}, args...)...)
}

type SortTerm struct {
	Column Column
	Desc   bool
}

type Filter struct {
	Column Column
	// IsNull matches NULL; Value is ignored then.
	IsNull bool
	Value  any
}

// Query is a parsed, validated list request.
type Query struct {
	Columns []Column
	Sort    []SortTerm
	Search  string
	Filters []Filter
	Page    int
	PerPage int
	With    []string
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.PerPage
}

type Limits struct {
	PageSize    int
	MaxPageSize int
}

// maxOffset bounds (page-1)*per_page; larger pages are rejected.
const maxOffset = math.MaxInt32

var filterKeyRe = regexp.MustCompile(`^filter\[([a-zA-Z0-9_]+)\]$`)

// ParseQuery validates query-string parameters against d.
func ParseQuery(d *Definition, values url.Values, limits Limits) (Query, error) {
	q := Query{Page: 1}

	cols, err := parseColumns(d, values.Get("columns"))
	if err != nil {
		return Query{}, err
	}
	q.Columns = cols

	rawSort := strings.TrimSpace(values.Get("sort"))
	if rawSort == "" {
		rawSort = d.DefaultSort
	}
	if q.Sort, err = parseSort(d, rawSort); err != nil {
		return Query{}, err
	}

	q.Search = strings.TrimSpace(values.Get("q"))

	if q.Filters, err = parseFilters(d, values); err != nil {
		return Query{}, err
	}

	if q.With, err = parseWith(d, values.Get("with")); err != nil {
		return Query{}, err
	}

	perPage, maxPerPage := limits.PageSize, limits.MaxPageSize
	if d.PerPage > 0 {
		perPage = d.PerPage
	}
	if d.MaxPerPage > 0 {
		maxPerPage = d.MaxPerPage
	}
	if perPage <= 0 {
		perPage = 25
	}
	if maxPerPage < perPage {
		maxPerPage = perPage
	}
	q.PerPage = perPage

	if v := strings.TrimSpace(values.Get("per_page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxPerPage {
			return Query{}, invalid("per_page must be between 1 and %d", maxPerPage)
		}
		q.PerPage = n
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Query{}, invalid("page must be a positive integer")
		}
		if n-1 > maxOffset/q.PerPage {
			return Query{}, invalid("page must be at most %d", maxOffset/q.PerPage+1)
		}
		q.Page = n
	}
	return q, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseColumns always puts id first.
func parseColumns(d *Definition, raw string) ([]Column, error) {
	id, _ := d.Column("id")
	out := []Column{id}

	names := splitList(raw)
	if len(names) == 0 {
		for _, c := range d.Columns {
			if c.Default && c.Name != "id" {
				out = append(out, c)
			}
		}
		return out, nil
	}

	seen := map[string]bool{"id": true}
	for _, name := range names {
		if seen[name] {
			continue
		}
		c, ok := d.Column(name)
		if !ok {
			return nil, invalid("unknown column %q", name)
		}
		seen[name] = true
		out = append(out, c)
	}
	return out, nil
}

func parseSort(d *Definition, raw string) ([]SortTerm, error) {
	var out []SortTerm
	for _, part := range splitList(raw) {
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		c, ok := d.Column(name)
		if !ok {
			return nil, invalid("unknown sort column %q", name)
		}
		if !c.Sortable {
			return nil, invalid("column %q is not sortable", name)
		}
		out = append(out, SortTerm{Column: c, Desc: desc})
	}
	return out, nil
}

func parseWith(d *Definition, raw string) ([]string, error) {
	var out []string
	for _, name := range splitList(raw) {
		if !d.HasRelation(name) {
			return nil, invalid("unknown relation %q", name)
		}
		out = append(out, name)
	}
	return out, nil
}

func parseFilters(d *Definition, values url.Values) ([]Filter, error) {
	var out []Filter
	// Definition order keeps the generated SQL stable.
	for _, c := range d.Columns {
		raw, ok := values["filter["+c.Name+"]"]
		if !ok || len(raw) == 0 {
			continue
		}
		if !c.Filterable {
			return nil, invalid("column %q is not filterable", c.Name)
		}
		f, err := parseFilterValue(c, strings.TrimSpace(raw[0]))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	for key := range values {
		m := filterKeyRe.FindStringSubmatch(key)
		if m == nil {
			if strings.HasPrefix(key, "filter[") {
				return nil, invalid("malformed filter %q", key)
			}
			continue
		}
		if _, ok := d.Column(m[1]); !ok {
			return nil, invalid("unknown filter column %q", m[1])
		}
	}
	return out, nil
}

func parseFilterValue(c Column, raw string) (Filter, error) {
	if raw == "null" {
		return Filter{Column: c, IsNull: true}, nil
	}
	switch c.Type {
	case TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, invalid("filter %q expects an integer", c.Name)
		}
		return Filter{Column: c, Value: n}, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, invalid("filter %q expects a boolean", c.Name)
		}
		return Filter{Column: c, Value: b}, nil
	case TypeDate:
		t, err := time.Parse(constants.DateLayout, raw)
		if err != nil {
			return Filter{}, invalid("filter %q expects a date (YYYY-MM-DD)", c.Name)
		}
		return Filter{Column: c, Value: t}, nil
	case TypeDateTime:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Filter{}, invalid("filter %q expects an RFC 3339 timestamp", c.Name)
		}
		return Filter{Column: c, Value: t}, nil
	case TypeEnum:
		for _, v := range c.Values {
			if v == raw {
				return Filter{Column: c, Value: raw}, nil
			}
		}
		return Filter{}, invalid("filter %q expects one of %s", c.Name, strings.Join(c.Values, ", "))
	default:
		return Filter{Column: c, Value: raw}, nil
	}
}
