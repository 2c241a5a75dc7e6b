package services

import (
	"context"
	"encoding/json"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/modules/person/domain/entities/notification"
)

// MergeNotifier leaves a person.merged notification on the survivor.
type MergeNotifier struct {
	personType    string
	notifications notification.Repository
}

func NewMergeNotifier(personType string, notifications notification.Repository) *MergeNotifier {
	return &MergeNotifier{personType: personType, notifications: notifications}
}

func (n *MergeNotifier) OnMerged(ctx context.Context, e *person.MergedEvent) error {
	attrs := e.Attributes
	if attrs == nil {
		attrs = []string{}
	}
	data, err := json.Marshal(map[string]any{
		"merged_id":  e.MergedID,
		"attributes": attrs,
		"merged_at":  e.MergedAt,
	})
	if err != nil {
		return err
	}
	return n.notifications.Create(ctx, &notification.Notification{
		Type:           notification.TypePersonMerged,
		NotifiableType: n.personType,
		NotifiableID:   e.SurvivorID,
		Data:           data,
	})
}
