package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	t.Parallel()

	names, err := MigrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_create_users.sql",
		"00002_create_vocab_items.sql",
		"00003_create_study_sessions.sql",
		"00004_create_progress.sql",
		"00005_create_tasks.sql",
	}, names)

	for _, name := range names {
		body, err := migrationFS.ReadFile("migrations/" + name)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), "-- +goose Up"), name)
		assert.True(t, strings.Contains(string(body), "-- +goose Down"), name)
	}
}

func TestMigrateUnknownCommand(t *testing.T) {
	err := Migrate(context.Background(), nil, "sideways", quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}
