// Package listview computes paginated, filterable list responses from
// declarative per-resource definitions.
package listview

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type ColumnType string

const (
	TypeString   ColumnType = "string"
	TypeInteger  ColumnType = "integer"
	TypeDate     ColumnType = "date"
	TypeDateTime ColumnType = "datetime"
	TypeEnum     ColumnType = "enum"
	TypeBoolean  ColumnType = "boolean"
)

type Column struct {
	Name       string     `yaml:"name" json:"name"`
	Label      string     `yaml:"label" json:"label"`
	Expr       string     `yaml:"expr" json:"-"`
	Type       ColumnType `yaml:"type" json:"type"`
	Sortable   bool       `yaml:"sortable" json:"sortable"`
	Filterable bool       `yaml:"filterable" json:"filterable"`
	Searchable bool       `yaml:"searchable" json:"searchable"`
	Default    bool       `yaml:"default" json:"default"`
	Values     []string   `yaml:"values" json:"values,omitempty"`
}

// SQL is the select expression of the column; the name when Expr is empty.
func (c Column) SQL() string {
	if c.Expr != "" {
		return c.Expr
	}
	return c.Name
}

type Definition struct {
	Key         string   `yaml:"key"`
	Route       string   `yaml:"route"`
	Model       string   `yaml:"model"`
	Table       string   `yaml:"table"`
	Where       string   `yaml:"where"`
	Columns     []Column `yaml:"columns"`
	Relations   []string `yaml:"relations"`
	DefaultSort string   `yaml:"default_sort"`
	PerPage     int      `yaml:"per_page"`
	MaxPerPage  int      `yaml:"max_per_page"`
}

func (d *Definition) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (d *Definition) HasRelation(name string) bool {
	for _, r := range d.Relations {
		if r == name {
			return true
		}
	}
	return false
}

func (d *Definition) validate() error {
	if d.Key == "" {
		return fmt.Errorf("listview: definition key is required")
	}
	if d.Table == "" {
		return fmt.Errorf("listview %s: table is required", d.Key)
	}
	if _, ok := d.Column("id"); !ok {
		return fmt.Errorf("listview %s: an id column is required", d.Key)
	}
	seen := map[string]bool{}
	for i := range d.Columns {
		c := &d.Columns[i]
		if c.Name == "" {
			return fmt.Errorf("listview %s: column %d has no name", d.Key, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("listview %s: duplicate column %q", d.Key, c.Name)
		}
		seen[c.Name] = true
		if c.Type == "" {
			c.Type = TypeString
		}
		if c.Type == TypeEnum && len(c.Values) == 0 {
			return fmt.Errorf("listview %s: enum column %q has no values", d.Key, c.Name)
		}
	}
	if d.DefaultSort != "" {
		if _, err := parseSort(d, d.DefaultSort); err != nil {
			return fmt.Errorf("listview %s: default_sort: %w", d.Key, err)
		}
	}
	return nil
}

func ParseDefinition(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("listview: parse definition: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Registry holds definitions by key and by route key.
type Registry struct {
	mu      sync.RWMutex
	byKey   map[string]*Definition
	byRoute map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:   map[string]*Definition{},
		byRoute: map[string]*Definition{},
	}
}

func (r *Registry) Register(d *Definition) error {
	if err := d.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byKey[d.Key]; dup {
		return fmt.Errorf("listview: definition %q already registered", d.Key)
	}
	r.byKey[d.Key] = d
	if d.Route != "" {
		r.byRoute[d.Route] = d
	}
	return nil
}

// RegisterFS parses and registers every *.yaml file in dir.
func (r *Registry) RegisterFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		d, err := ParseDefinition(data)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(key string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byKey[key]
	return d, ok
}

func (r *Registry) ByRoute(route string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byRoute[route]
	return d, ok
}

func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byKey))
	for k := range r.byKey {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
