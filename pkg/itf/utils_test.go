package itf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeSchemaName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "testmerge_moves_credential", sanitizeSchemaName("TestMerge/moves credential"))
	require.Equal(t, "it_42_cases", sanitizeSchemaName("42 cases"))
	require.Equal(t, "it", sanitizeSchemaName("///"))

	long := sanitizeSchemaName("Test" + strings.Repeat("VeryLongSubtestName/", 10))
	require.Len(t, long, maxSchemaNameLength)
	require.NotEqual(t, long, sanitizeSchemaName("Test"+strings.Repeat("VeryLongSubtestName/", 11)))
}

func TestDSN_SkipsWithoutEnvironment(t *testing.T) {
	t.Setenv(DSNEnv, "")
	ok := t.Run("inner", func(t *testing.T) {
		DSN(t)
		t.Fatal("DSN should have skipped")
	})
	require.True(t, ok)
}
