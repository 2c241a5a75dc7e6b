package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/audit"
	"github.com/iota-uz/estate-office/pkg/composables"
	"github.com/iota-uz/estate-office/pkg/eventbus"
	"github.com/iota-uz/estate-office/pkg/jobs"
)

const MergeJobKind = "persons.merge"

type MergePersonsPayload struct {
	LeftID     int64             `json:"left_id"`
	RightID    int64             `json:"right_id"`
	Attributes person.Attributes `json:"attributes"`
}

// MergeJobHandler runs persons.merge jobs: one transaction folds right into
// left, then a person.MergedEvent is published.
type MergeJobHandler struct {
	personType string
	merges     person.MergeRepository
	audits     audit.Repository
	publisher  eventbus.EventBus
	now        func() time.Time
}

func NewMergeJobHandler(
	personType string,
	merges person.MergeRepository,
	audits audit.Repository,
	publisher eventbus.EventBus,
) *MergeJobHandler {
	return &MergeJobHandler{
		personType: personType,
		merges:     merges,
		audits:     audits,
		publisher:  publisher,
		now:        time.Now,
	}
}

func (h *MergeJobHandler) Handle(ctx context.Context, d jobs.Delivery) error {
	var payload MergePersonsPayload
	if err := d.Decode(&payload); err != nil {
		return err
	}
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"job-id":   d.Meta.ID.String(),
		"left-id":  payload.LeftID,
		"right-id": payload.RightID,
	})

	res, err := composables.InTxResult(ctx, func(txCtx context.Context) (person.MergeResult, error) {
		res, err := h.merges.Merge(txCtx, person.MergeCommand{
			LeftID:     payload.LeftID,
			RightID:    payload.RightID,
			Attributes: payload.Attributes,
		})
		if err != nil {
			return person.MergeResult{}, err
		}
		a, err := buildAudit(h.personType, audit.EventMerged, payload.LeftID, res.Before.Snapshot(), res.Survivor.Snapshot())
		if err != nil {
			return person.MergeResult{}, err
		}
		if err := h.audits.Create(txCtx, a); err != nil {
			return person.MergeResult{}, err
		}
		return res, nil
	})
	if err != nil {
		if errors.Is(err, person.ErrNotFound) || errors.Is(err, person.ErrMergeSame) {
			logger.WithError(err).Warn("merge cannot run")
			return jobs.Permanent(err)
		}
		return err
	}
	logger.Info("persons merged")

	event := &person.MergedEvent{
		SurvivorID: res.Survivor.ID(),
		MergedID:   res.Merged.ID(),
		Attributes: payload.Attributes.Keys(),
		MergedAt:   h.now(),
	}
	// The merge is committed; a failing subscriber must not retry it.
	if err := h.publisher.PublishE(ctx, event); err != nil && !errors.Is(err, eventbus.ErrNoSubscribers) {
		logger.WithError(err).Error("person.MergedEvent subscriber failed")
	}
	return nil
}
