package listview

import (
	"fmt"
	"strings"

	"github.com/iota-uz/estate-office/pkg/repo"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildWhere returns the WHERE clause (possibly empty) and its args.
func buildWhere(d *Definition, q Query) (string, []any) {
	var where []string
	var args []any

	if d.Where != "" {
		where = append(where, "("+d.Where+")")
	}
	for _, f := range q.Filters {
		if f.IsNull {
			where = append(where, fmt.Sprintf("%s IS NULL", f.Column.SQL()))
			continue
		}
		args = append(args, f.Value)
		where = append(where, fmt.Sprintf("%s = $%d", f.Column.SQL(), len(args)))
	}
	if q.Search != "" {
		var ors []string
		for _, c := range d.Columns {
			if !c.Searchable {
				continue
			}
			ors = append(ors, fmt.Sprintf("%s::text ILIKE $%d", c.SQL(), len(args)+1))
		}
		if len(ors) > 0 {
			args = append(args, "%"+likeEscaper.Replace(q.Search)+"%")
			where = append(where, "("+strings.Join(ors, " OR ")+")")
		}
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func buildOrderBy(d *Definition, q Query) string {
	terms := make([]string, 0, len(q.Sort)+1)
	hasID := false
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		terms = append(terms, fmt.Sprintf("%s %s", s.Column.SQL(), dir))
		if s.Column.Name == "id" {
			hasID = true
		}
	}
	if !hasID {
		id, _ := d.Column("id")
		terms = append(terms, id.SQL()+" ASC")
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

func buildCount(d *Definition, q Query) (string, []any) {
	where, args := buildWhere(d, q)
	return "SELECT COUNT(*) FROM " + d.Table + where, args
}

func buildSelect(d *Definition, q Query, limit, offset int) (string, []any) {
	cols := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		cols[i] = fmt.Sprintf(`%s AS "%s"`, c.SQL(), c.Name)
	}
	where, args := buildWhere(d, q)
	sql := "SELECT " + strings.Join(cols, ", ") + " FROM " + d.Table + where + buildOrderBy(d, q)
	if lo := repo.FormatLimitOffset(limit, offset); lo != "" {
		sql += " " + lo
	}
	return sql, args
}
