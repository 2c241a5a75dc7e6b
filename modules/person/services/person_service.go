package services

import (
	"context"
	"encoding/json"
	"io"
	"net/url"

	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/audit"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/notification"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/role"
	"github.com/iota-uz/estate-office/pkg/composables"
	"github.com/iota-uz/estate-office/pkg/jobs"
	"github.com/iota-uz/estate-office/pkg/listview"
)

const (
	ListViewKey   = "persons"
	IndexRouteKey = "PersonAPIController@Index"
	ExportSheet   = "Persons"
)

type Repositories struct {
	Persons       person.Repository
	Graphs        person.GraphRepository
	Audits        audit.Repository
	Notifications notification.Repository
	Roles         role.Repository
}

type PersonService struct {
	personType string
	repos      Repositories
	listviews  *listview.Service
	loader     listview.RelationLoader
	queue      jobs.Queue
}

func NewPersonService(
	personType string,
	repos Repositories,
	listviews *listview.Service,
	loader listview.RelationLoader,
	queue jobs.Queue,
) *PersonService {
	return &PersonService{
		personType: personType,
		repos:      repos,
		listviews:  listviews,
		loader:     loader,
		queue:      queue,
	}
}

func (s *PersonService) PersonType() string {
	return s.personType
}

func (s *PersonService) List(ctx context.Context, values url.Values) (*listview.Result, error) {
	return s.listviews.Calculate(ctx, ListViewKey, values, s.loader)
}

func (s *PersonService) Parameters() (*listview.Schema, error) {
	return s.listviews.Parameters(IndexRouteKey)
}

// Export renders the rows the index would list, unpaginated, as xlsx.
func (s *PersonService) Export(ctx context.Context, values url.Values, w io.Writer) error {
	columns, rows, err := s.listviews.Rows(ctx, ListViewKey, values)
	if err != nil {
		return err
	}
	return listview.WriteXLSX(w, ExportSheet, columns, rows)
}

func (s *PersonService) GetByID(ctx context.Context, id int64) (person.Person, error) {
	return s.repos.Persons.GetByID(ctx, id)
}

func (s *PersonService) Create(ctx context.Context, attrs person.Attributes) (person.Person, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (person.Person, error) {
		created, err := s.repos.Persons.Create(txCtx, person.New(attrs))
		if err != nil {
			return person.Person{}, err
		}
		if err := s.writeAudit(txCtx, audit.EventCreated, created.ID(), nil, created.Snapshot()); err != nil {
			return person.Person{}, err
		}
		return created, nil
	})
}

func (s *PersonService) Update(ctx context.Context, id int64, attrs person.Attributes) (person.Person, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (person.Person, error) {
		before, err := s.repos.Persons.GetByID(txCtx, id)
		if err != nil {
			return person.Person{}, err
		}
		if attrs.IsEmpty() {
			return before, nil
		}
		after, err := s.repos.Persons.Update(txCtx, id, attrs)
		if err != nil {
			return person.Person{}, err
		}
		if err := s.writeAudit(txCtx, audit.EventUpdated, id, before.Snapshot(), after.Snapshot()); err != nil {
			return person.Person{}, err
		}
		return after, nil
	})
}

// Merge validates both ends and enqueues the merge; the persons table is
// not touched here.
func (s *PersonService) Merge(ctx context.Context, leftID, rightID int64, attrs person.Attributes) (uuid.UUID, error) {
	if leftID == rightID {
		return uuid.Nil, person.ErrMergeSame
	}
	for _, id := range []int64{leftID, rightID} {
		ok, err := s.repos.Persons.Exists(ctx, id)
		if err != nil {
			return uuid.Nil, err
		}
		if !ok {
			return uuid.Nil, person.ErrNotFound
		}
	}

	payload, err := json.Marshal(MergePersonsPayload{
		LeftID:     leftID,
		RightID:    rightID,
		Attributes: attrs,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (uuid.UUID, error) {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return uuid.Nil, err
		}
		return s.queue.Enqueue(txCtx, tx, jobs.Job{Kind: MergeJobKind, Payload: payload})
	})
}

func (s *PersonService) Show(ctx context.Context, id int64) (person.Graph, error) {
	p, err := s.repos.Persons.GetByID(ctx, id)
	if err != nil {
		return person.Graph{}, err
	}
	return s.repos.Graphs.Load(ctx, p)
}

func (s *PersonService) Notifications(ctx context.Context, id int64) ([]notification.Notification, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Notifications.ListFor(ctx, s.personType, id)
}

func (s *PersonService) MarkAllNotificationsRead(ctx context.Context, id int64) (int64, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return 0, err
	}
	return s.repos.Notifications.MarkAllRead(ctx, s.personType, id)
}

func (s *PersonService) Roles(ctx context.Context, id int64) ([]role.Role, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Roles.ListByPerson(ctx, id)
}

func (s *PersonService) ensureExists(ctx context.Context, id int64) error {
	ok, err := s.repos.Persons.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return person.ErrNotFound
	}
	return nil
}

// writeAudit stores old/new values and an RFC 6902 diff between them.
// Nothing is written when an update changed no value.
func (s *PersonService) writeAudit(ctx context.Context, event string, id int64, before, after map[string]any) error {
	a, err := buildAudit(s.personType, event, id, before, after)
	if err != nil || a == nil {
		return err
	}
	return s.repos.Audits.Create(ctx, a)
}

func buildAudit(personType, event string, id int64, before, after map[string]any) (*audit.Audit, error) {
	oldJSON, err := json.Marshal(before)
	if err != nil {
		return nil, err
	}
	newJSON, err := json.Marshal(after)
	if err != nil {
		return nil, err
	}
	a := &audit.Audit{
		AuditableType: personType,
		AuditableID:   id,
		Event:         event,
		NewValues:     newJSON,
	}
	if before == nil {
		return a, nil
	}

	patch, err := jsondiff.CompareJSON(oldJSON, newJSON)
	if err != nil {
		return nil, err
	}
	if len(patch) == 0 && event == audit.EventUpdated {
		return nil, nil
	}
	diff, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	a.OldValues = oldJSON
	a.Diff = diff
	return a, nil
}
