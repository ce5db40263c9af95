package models_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/robalyx/slashcore/internal/command"
	"github.com/robalyx/slashcore/internal/database/models"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncRunRecord(t *testing.T) {
	t.Parallel()

	startedAt := time.Now().Add(-time.Second)
	synced := []registry.RegisteredCommand{{Name: "ping"}, {Name: "help"}}

	syncErr := errors.Join(
		&registry.SyncError{
			Key:   registry.ScopedKey{Type: command.CommandTypeChatInput, Name: "ban", GuildID: 7},
			Stage: registry.StageCreate,
			Err:   errors.New("missing access"),
		},
		fmt.Errorf("wrapped: %w", &registry.SyncError{
			Key:   registry.ScopedKey{Type: command.CommandTypeUser, Name: "Inspect"},
			Stage: registry.StageValidate,
			Err:   command.ErrValidation,
		}),
	)

	run := models.NewSyncRunRecord(startedAt, 4, synced, 1, syncErr)
	assert.Equal(t, 4, run.Declared)
	assert.Equal(t, 2, run.Synced)
	assert.Equal(t, 1, run.Pruned)
	assert.GreaterOrEqual(t, run.DurationMS, int64(1000))

	require.Len(t, run.Failures, 2)
	assert.True(t, run.Failed())
	assert.Equal(t, "ban", run.Failures[0].Name)
	assert.Equal(t, int64(7), run.Failures[0].GuildID)
	assert.Equal(t, registry.StageCreate, run.Failures[0].Stage)
	assert.Equal(t, "Inspect", run.Failures[1].Name)
	assert.Equal(t, registry.StageValidate, run.Failures[1].Stage)
}

func TestNewSyncRunRecordWithoutFailures(t *testing.T) {
	t.Parallel()

	run := models.NewSyncRunRecord(time.Now(), 1, []registry.RegisteredCommand{{Name: "ping"}}, 0, nil)
	assert.False(t, run.Failed())
	assert.NotNil(t, run.Failures)
}
