package metrics

import (
	"path/filepath"
	"testing"

	"github.com/mauv0809/tankbot/internal/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a migrated SQLite database in a temporary directory.
func setupTestDB(t *testing.T) MetricsStore {
	t.Helper()

	db, teardown, err := database.InitDB(filepath.Join(t.TempDir(), "metrics.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	return New(db)
}

func TestIncrementAndGetAll(t *testing.T) {
	store := setupTestDB(t)

	// 1. Initially, there should be no metrics
	metrics, err := store.GetAll()
	require.NoError(t, err)
	assert.Empty(t, metrics)

	// 2. Increment a new key
	store.Increment(KeyBackupsDelivered)
	metrics, err = store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{KeyBackupsDelivered: 1}, metrics)

	// 3. Increment the same key again
	store.Increment(KeyBackupsDelivered)
	store.Increment(KeyThreadsCreated)
	metrics, err = store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		KeyBackupsDelivered: 2,
		KeyThreadsCreated:   1,
	}, metrics)
}

func TestService(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewService(reg)

	s.IncSubmissions()
	s.IncSubmissions()
	s.IncBackupsFailed()
	s.ObserveBackupDuration(0.3)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.Submissions))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.BackupsFailed))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.Backups))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 11)
}
