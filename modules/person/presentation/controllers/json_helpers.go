package controllers

import (
	"errors"
	"net/http"

	"github.com/iota-uz/estate-office/modules/person/domain/aggregates/person"
	"github.com/iota-uz/estate-office/pkg/composables"
	"github.com/iota-uz/estate-office/pkg/httpapi"
	"github.com/iota-uz/estate-office/pkg/listview"
	"github.com/iota-uz/estate-office/pkg/serrors"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to encode response")
	}
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	if err := httpapi.WriteError(w, r, status, code, message); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to encode error response")
	}
}

// writeAttributesError answers a failed person.ParseAttributes.
func writeAttributesError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs serrors.ValidationErrors
	if errors.As(err, &verrs) {
		if werr := httpapi.WriteValidation(
			w, r,
			"PERSON_VALIDATION_FAILED",
			verrs.First(person.Whitelist...),
			verrs,
		); werr != nil {
			composables.UseLogger(r.Context()).WithError(werr).Error("failed to encode error response")
		}
		return
	}
	writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_JSON", "invalid json")
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, person.ErrNotFound):
		writeAPIError(w, r, http.StatusNotFound, person.ErrNotFound.Code, person.ErrNotFound.Message)
	case errors.Is(err, person.ErrMergeSame):
		writeAPIError(w, r, http.StatusUnprocessableEntity, person.ErrMergeSame.Code, person.ErrMergeSame.Message)
	case errors.Is(err, listview.ErrInvalidParameter):
		writeAPIError(w, r, http.StatusUnprocessableEntity, listview.ErrInvalidParameter.Code, err.Error())
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("person request failed")
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
	}
}
