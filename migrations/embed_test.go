package migrations

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_AreSequentialAndReversible(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for i, name := range files {
		assert.True(t, strings.HasPrefix(name, fmt.Sprintf("%05d_", i+1)), "unexpected order: %s", name)

		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		s := string(body)
		up := strings.Index(s, "-- +goose Up")
		down := strings.Index(s, "-- +goose Down")
		require.GreaterOrEqual(t, up, 0, name)
		require.Greater(t, down, up, name)
		assert.Contains(t, s[down:], "DROP TABLE", name)
	}
}
