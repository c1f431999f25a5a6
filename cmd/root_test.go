package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"equiphouse/internal/inventory/restructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestructureStatusCommand(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("MIGRATION_BATCH_SIZE", "")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"restructure", "status"})

	require.NoError(t, root.Execute())

	var status restructure.StatusReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &status))
	assert.Equal(t, restructure.StatusNotStarted, status.State)
	assert.False(t, status.NeedsMigration)
}

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd()

	for _, path := range [][]string{{"serve"}, {"migrate"}, {"restructure", "run"}, {"restructure", "rollback"}, {"restructure", "status"}} {
		found, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], found.Name())
	}

	run, _, err := root.Find([]string{"restructure", "run"})
	require.NoError(t, err)
	assert.NotNil(t, run.Flags().Lookup("skip-existing"))
}
