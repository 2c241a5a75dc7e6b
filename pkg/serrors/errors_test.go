package serrors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestBaseError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	errA := NewError("PERSON_NOT_FOUND", "person not found", "")
	wrapped := fmt.Errorf("load: %w", errA)

	require.ErrorIs(t, wrapped, errA)
	require.ErrorIs(t, wrapped, NewError("PERSON_NOT_FOUND", "other text", ""))
	require.NotErrorIs(t, wrapped, NewError("OTHER", "person not found", ""))

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	require.Equal(t, "PERSON_NOT_FOUND", code)
}

func TestProcessValidatorErrors_MapsFieldNames(t *testing.T) {
	t.Parallel()

	type input struct {
		Sex      *string `validate:"omitempty,oneof=male female"`
		Birthday *string `validate:"omitempty,datetime=2006-01-02"`
	}
	sex := "x"
	bday := "01.02.1990"
	err := validator.New().Struct(input{Sex: &sex, Birthday: &bday})
	require.Error(t, err)

	out := ProcessValidatorErrors(err.(validator.ValidationErrors), func(f string) string {
		return map[string]string{"Sex": "sex", "Birthday": "birthday"}[f]
	})
	require.Len(t, out, 2)
	require.Equal(t, "sex must be one of: male, female", out["sex"])
	require.Equal(t, "birthday must match format 2006-01-02", out["birthday"])
	require.Equal(t, out["birthday"], out.First("birthday", "sex"))
}
