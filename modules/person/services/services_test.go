package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/audit"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/detailcategory"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/notification"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/role"
	"github.com/iota-uz/estate-office/pkg/eventbus"
	"github.com/iota-uz/estate-office/pkg/jobs"
)

func hydrate(id int64, name string) person.Person {
	return person.Hydrate(id, &name, nil, nil, nil, time.Time{}, time.Time{})
}

type fixture struct {
	persons       *fakePersons
	audits        *fakeAudits
	notifications *fakeNotifications
	queue         *fakeQueue
	svc           *PersonService
}

func newFixture(existing ...person.Person) *fixture {
	f := &fixture{
		persons:       newFakePersons(existing...),
		audits:        &fakeAudits{},
		notifications: &fakeNotifications{},
		queue:         &fakeQueue{},
	}
	f.svc = NewPersonService("person", Repositories{
		Persons:       f.persons,
		Graphs:        fakeGraphs{},
		Audits:        f.audits,
		Notifications: f.notifications,
		Roles:         &fakeRoles{roles: []role.Role{{ID: 1, Name: "tenant"}}},
	}, nil, nil, f.queue)
	return f
}

func TestPersonService_CreateAuditsNewValues(t *testing.T) {
	t.Parallel()

	f := newFixture()
	created, err := f.svc.Create(txContext(), person.Attributes{Name: person.Present("Muster")})
	require.NoError(t, err)
	require.Equal(t, int64(101), created.ID())
	require.Nil(t, created.Sex())

	require.Len(t, f.audits.created, 1)
	a := f.audits.created[0]
	require.Equal(t, audit.EventCreated, a.Event)
	require.Equal(t, "person", a.AuditableType)
	require.Nil(t, a.OldValues)
	require.JSONEq(t, `{"name":"Muster","first_name":null,"birthday":null,"sex":null}`, string(a.NewValues))
}

func TestPersonService_UpdateAuditsDiff(t *testing.T) {
	t.Parallel()

	f := newFixture(hydrate(1, "Alt"))
	updated, err := f.svc.Update(txContext(), 1, person.Attributes{
		Name: person.Present("Neu"),
		Sex:  person.Present(person.SexMale),
	})
	require.NoError(t, err)
	require.Equal(t, "Neu", *updated.Name())

	require.Len(t, f.audits.created, 1)
	var ops []map[string]any
	require.NoError(t, json.Unmarshal(f.audits.created[0].Diff, &ops))
	paths := map[string]string{}
	for _, op := range ops {
		paths[op["path"].(string)] = op["op"].(string)
	}
	require.Equal(t, map[string]string{"/name": "replace", "/sex": "replace"}, paths)
}

func TestPersonService_UpdateWithoutChangesSkipsAudit(t *testing.T) {
	t.Parallel()

	f := newFixture(hydrate(1, "Same"))
	_, err := f.svc.Update(txContext(), 1, person.Attributes{Name: person.Present("Same")})
	require.NoError(t, err)
	require.Empty(t, f.audits.created)

	_, err = f.svc.Update(txContext(), 1, person.Attributes{})
	require.NoError(t, err)
	require.Empty(t, f.audits.created)

	_, err = f.svc.Update(txContext(), 2, person.Attributes{Name: person.Present("x")})
	require.ErrorIs(t, err, person.ErrNotFound)
}

func TestPersonService_MergeEnqueuesOnly(t *testing.T) {
	t.Parallel()

	f := newFixture(hydrate(1, "L"), hydrate(2, "R"))
	ctx := txContext()
	id, err := f.svc.Merge(ctx, 1, 2, person.Attributes{
		Name:     person.Present("L"),
		Birthday: person.Null[person.Date](),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	require.Len(t, f.queue.jobs, 1)
	require.NotNil(t, f.queue.txs[0])
	job := f.queue.jobs[0]
	require.Equal(t, MergeJobKind, job.Kind)
	require.JSONEq(t, `{"left_id":1,"right_id":2,"attributes":{"name":"L","birthday":null}}`, string(job.Payload))

	// nothing written to persons
	require.Equal(t, "R", *f.persons.rows[2].Name())
	require.Empty(t, f.audits.created)
}

func TestPersonService_MergeValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(hydrate(1, "L"))
	_, err := f.svc.Merge(txContext(), 1, 1, person.Attributes{})
	require.ErrorIs(t, err, person.ErrMergeSame)

	_, err = f.svc.Merge(txContext(), 1, 9, person.Attributes{})
	require.ErrorIs(t, err, person.ErrNotFound)
	require.Empty(t, f.queue.jobs)
}

func TestPersonService_PersonScopedReads(t *testing.T) {
	t.Parallel()

	f := newFixture(hydrate(1, "A"))
	f.notifications.list = []notification.Notification{{Type: notification.TypePersonMerged}}
	f.notifications.marked = 2
	ctx := context.Background()

	list, err := f.svc.Notifications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	n, err := f.svc.MarkAllNotificationsRead(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	roles, err := f.svc.Roles(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "tenant", roles[0].Name)

	g, err := f.svc.Show(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), g.Person.ID())

	for _, call := range []func() error{
		func() error { _, err := f.svc.Notifications(ctx, 5); return err },
		func() error { _, err := f.svc.MarkAllNotificationsRead(ctx, 5); return err },
		func() error { _, err := f.svc.Roles(ctx, 5); return err },
		func() error { _, err := f.svc.Show(ctx, 5); return err },
	} {
		require.ErrorIs(t, call(), person.ErrNotFound)
	}
}

func TestDetailCategoryService_CachesReads(t *testing.T) {
	t.Parallel()

	repo := &fakeCategories{
		categories: []detailcategory.Category{{ID: 1, TypeKey: "person", Name: "phone", Subcategories: []detailcategory.Subcategory{}}},
		subs:       map[string][]detailcategory.Subcategory{"phone": {{ID: 3, CategoryID: 1, Name: "mobile"}}},
	}
	c := newMemoryCache()
	svc := NewDetailCategoryService("person", repo, c, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		cats, err := svc.Categories(ctx)
		require.NoError(t, err)
		require.Equal(t, "phone", cats[0].Name)
	}
	require.Equal(t, 1, repo.calls)
	require.Contains(t, c.data, "detail_categories:person")

	subs, err := svc.Subcategories(ctx, "phone")
	require.NoError(t, err)
	require.Equal(t, "mobile", subs[0].Name)

	subs, err = svc.Subcategories(ctx, "unknown")
	require.NoError(t, err)
	require.NotNil(t, subs)
	require.Empty(t, subs)
}

func TestDetailCategoryService_FallsThroughOnCacheErrors(t *testing.T) {
	t.Parallel()

	repo := &fakeCategories{categories: []detailcategory.Category{{ID: 1, Name: "phone"}}}
	c := newMemoryCache()
	c.getErr = errBoom
	c.setErr = errBoom
	svc := NewDetailCategoryService("person", repo, c, time.Minute)

	for i := 0; i < 2; i++ {
		cats, err := svc.Categories(context.Background())
		require.NoError(t, err)
		require.Len(t, cats, 1)
	}
	require.Equal(t, 2, repo.calls)

	nop := NewDetailCategoryService("person", repo, nil, time.Minute)
	_, err := nop.Categories(context.Background())
	require.NoError(t, err)
}

func mergeDelivery(t *testing.T, payload MergePersonsPayload) jobs.Delivery {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return jobs.Delivery{Meta: jobs.Meta{ID: uuid.New(), Kind: MergeJobKind, Attempts: 1}, Payload: raw}
}

func TestMergeJobHandler_MergesAuditsAndNotifies(t *testing.T) {
	t.Parallel()

	merges := &fakeMerges{result: person.MergeResult{
		Before:   hydrate(1, "Alt"),
		Survivor: hydrate(1, "Neu"),
		Merged:   hydrate(2, "Dup"),
	}}
	audits := &fakeAudits{}
	notifications := &fakeNotifications{}
	bus := eventbus.NewEventPublisher(logrus.New())
	bus.Subscribe(NewMergeNotifier("person", notifications).OnMerged)

	h := NewMergeJobHandler("person", merges, audits, bus)
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := h.Handle(txContext(), mergeDelivery(t, MergePersonsPayload{
		LeftID:     1,
		RightID:    2,
		Attributes: person.Attributes{Name: person.Present("Neu"), Sex: person.Null[person.Sex]()},
	}))
	require.NoError(t, err)

	require.Equal(t, int64(1), merges.cmd.LeftID)
	require.Equal(t, int64(2), merges.cmd.RightID)
	require.True(t, merges.cmd.Attributes.Sex.Set)
	require.Nil(t, merges.cmd.Attributes.Sex.Value)
	require.False(t, merges.cmd.Attributes.Birthday.Set)

	require.Len(t, audits.created, 1)
	require.Equal(t, audit.EventMerged, audits.created[0].Event)
	require.NotEmpty(t, audits.created[0].Diff)

	require.Len(t, notifications.created, 1)
	n := notifications.created[0]
	require.Equal(t, notification.TypePersonMerged, n.Type)
	require.Equal(t, int64(1), n.NotifiableID)
	require.JSONEq(t, `{"merged_id":2,"attributes":["name","sex"],"merged_at":"2026-01-02T03:04:05Z"}`, string(n.Data))
}

func TestMergeJobHandler_MissingSideIsPermanent(t *testing.T) {
	t.Parallel()

	merges := &fakeMerges{err: person.ErrNotFound}
	h := NewMergeJobHandler("person", merges, &fakeAudits{}, eventbus.NewEventPublisher(logrus.New()))

	err := h.Handle(txContext(), mergeDelivery(t, MergePersonsPayload{LeftID: 1, RightID: 2}))
	require.ErrorIs(t, err, person.ErrNotFound)
	require.True(t, jobs.IsPermanent(err))

	merges.err = errBoom
	err = h.Handle(txContext(), mergeDelivery(t, MergePersonsPayload{LeftID: 1, RightID: 2}))
	require.ErrorIs(t, err, errBoom)
	require.False(t, jobs.IsPermanent(err))

	err = h.Handle(txContext(), jobs.Delivery{Payload: []byte(`{`)})
	require.True(t, jobs.IsPermanent(err))
}

func TestMergeJobHandler_SubscriberFailureDoesNotFailJob(t *testing.T) {
	t.Parallel()

	merges := &fakeMerges{result: person.MergeResult{Survivor: hydrate(1, "A"), Merged: hydrate(2, "B"), Before: hydrate(1, "A")}}
	bus := eventbus.NewEventPublisher(logrus.New())
	bus.Subscribe(NewMergeNotifier("person", &fakeNotifications{err: errBoom}).OnMerged)

	h := NewMergeJobHandler("person", merges, &fakeAudits{}, bus)
	require.NoError(t, h.Handle(txContext(), mergeDelivery(t, MergePersonsPayload{LeftID: 1, RightID: 2})))
}
