package listview

import "fmt"

// Schema describes the parameters an index endpoint accepts.
type Schema struct {
	Key        string         `json:"key"`
	Route      string         `json:"route"`
	Columns    []Column       `json:"columns"`
	Relations  []string       `json:"relations"`
	Sort       SortSchema     `json:"sort"`
	Pagination PaginateSchema `json:"pagination"`
	Search     SearchSchema   `json:"search"`
	Filter     FilterSchema   `json:"filter"`
}

type SortSchema struct {
	Param   string   `json:"param"`
	Default string   `json:"default"`
	Columns []string `json:"columns"`
}

type PaginateSchema struct {
	PageParam    string `json:"page_param"`
	PerPageParam string `json:"per_page_param"`
	PerPage      int    `json:"per_page"`
	MaxPerPage   int    `json:"max_per_page"`
}

type SearchSchema struct {
	Param   string   `json:"param"`
	Columns []string `json:"columns"`
}

type FilterSchema struct {
	Param   string   `json:"param"`
	Null    string   `json:"null"`
	Columns []string `json:"columns"`
}

// Parameters returns the schema of the definition bound to route.
func (s *Service) Parameters(route string) (*Schema, error) {
	d, ok := s.registry.ByRoute(route)
	if !ok {
		return nil, fmt.Errorf("listview: no definition for route %q", route)
	}
	limits := s.limits()
	perPage, maxPerPage := limits.PageSize, limits.MaxPageSize
	if d.PerPage > 0 {
		perPage = d.PerPage
	}
	if d.MaxPerPage > 0 {
		maxPerPage = d.MaxPerPage
	}

	out := &Schema{
		Key:       d.Key,
		Route:     d.Route,
		Columns:   d.Columns,
		Relations: append([]string{}, d.Relations...),
		Sort:      SortSchema{Param: "sort", Default: d.DefaultSort, Columns: []string{}},
		Pagination: PaginateSchema{
			PageParam:    "page",
			PerPageParam: "per_page",
			PerPage:      perPage,
			MaxPerPage:   maxPerPage,
		},
		Search: SearchSchema{Param: "q", Columns: []string{}},
		Filter: FilterSchema{Param: "filter[<column>]", Null: "null", Columns: []string{}},
	}
	for _, c := range d.Columns {
		if c.Sortable {
			out.Sort.Columns = append(out.Sort.Columns, c.Name)
		}
		if c.Searchable {
			out.Search.Columns = append(out.Search.Columns, c.Name)
		}
		if c.Filterable {
			out.Filter.Columns = append(out.Filter.Columns, c.Name)
		}
	}
	return out, nil
}

// Response shapes a Result for the wire. Absent collections are [].
func Response(res *Result, model string) map[string]any {
	index := res.Index
	if index == nil {
		index = []Row{}
	}
	relations := res.Relations
	if relations == nil {
		relations = []string{}
	}
	return map[string]any{
		"columns":    res.Columns,
		"index":      index,
		"relations":  relations,
		"pagination": res.Paginator,
		"model":      model,
	}
}
