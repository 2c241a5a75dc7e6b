package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/audit"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/detailcategory"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/notification"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/role"
	"github.com/iota-uz/estate-office/pkg/constants"
	"github.com/iota-uz/estate-office/pkg/jobs"
	"github.com/iota-uz/estate-office/pkg/repo"
	"github.com/iota-uz/estate-office/pkg/repo/repotest"
)

// txContext carries a stub transaction so composables.InTx reuses it.
func txContext() context.Context {
	return context.WithValue(context.Background(), constants.TxKey, &repotest.StubTx{})
}

type fakePersons struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]person.Person
}

func newFakePersons(existing ...person.Person) *fakePersons {
	f := &fakePersons{nextID: 100, rows: map[int64]person.Person{}}
	for _, p := range existing {
		f.rows[p.ID()] = p
	}
	return f
}

func (f *fakePersons) GetByID(_ context.Context, id int64) (person.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return person.Person{}, person.ErrNotFound
	}
	return p, nil
}

func (f *fakePersons) Exists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakePersons) Create(_ context.Context, p person.Person) (person.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	now := time.Now()
	stored := person.Hydrate(f.nextID, p.Name(), p.FirstName(), p.Birthday(), p.Sex(), now, now)
	f.rows[stored.ID()] = stored
	return stored, nil
}

func (f *fakePersons) Update(_ context.Context, id int64, attrs person.Attributes) (person.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return person.Person{}, person.ErrNotFound
	}
	p = p.Apply(attrs)
	f.rows[id] = p
	return p, nil
}

type fakeAudits struct {
	created []*audit.Audit
}

func (f *fakeAudits) Create(_ context.Context, a *audit.Audit) error {
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAudits) ListFor(context.Context, string, int64) ([]audit.Audit, error) {
	return []audit.Audit{}, nil
}

type fakeNotifications struct {
	created []*notification.Notification
	list    []notification.Notification
	marked  int64
	err     error
}

func (f *fakeNotifications) ListFor(context.Context, string, int64) ([]notification.Notification, error) {
	return f.list, f.err
}

func (f *fakeNotifications) MarkAllRead(context.Context, string, int64) (int64, error) {
	return f.marked, f.err
}

func (f *fakeNotifications) Create(_ context.Context, n *notification.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

type fakeRoles struct {
	roles []role.Role
}

func (f *fakeRoles) ListByPerson(context.Context, int64) ([]role.Role, error) {
	return f.roles, nil
}

func (f *fakeRoles) ListByPersons(context.Context, []int64) (map[int64][]role.Role, error) {
	return map[int64][]role.Role{}, nil
}

type fakeGraphs struct{}

func (fakeGraphs) Load(_ context.Context, p person.Person) (person.Graph, error) {
	return person.Graph{Person: p}, nil
}

type fakeQueue struct {
	jobs []jobs.Job
	txs  []repo.Tx
}

func (f *fakeQueue) Enqueue(_ context.Context, tx repo.Tx, job jobs.Job) (uuid.UUID, error) {
	f.jobs = append(f.jobs, job)
	f.txs = append(f.txs, tx)
	return uuid.New(), nil
}

type fakeMerges struct {
	cmd    person.MergeCommand
	result person.MergeResult
	err    error
}

func (f *fakeMerges) Merge(_ context.Context, cmd person.MergeCommand) (person.MergeResult, error) {
	f.cmd = cmd
	return f.result, f.err
}

type fakeCategories struct {
	calls      int
	categories []detailcategory.Category
	subs       map[string][]detailcategory.Subcategory
}

func (f *fakeCategories) ListByType(_ context.Context, typeKey string) ([]detailcategory.Category, error) {
	f.calls++
	return f.categories, nil
}

func (f *fakeCategories) Subcategories(_ context.Context, typeKey, name string) ([]detailcategory.Subcategory, error) {
	f.calls++
	out, ok := f.subs[name]
	if !ok {
		return []detailcategory.Subcategory{}, nil
	}
	return out, nil
}

type memoryCache struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

var errBoom = errors.New("boom")
