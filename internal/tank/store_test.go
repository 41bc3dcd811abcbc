package tank_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/tankbot/internal/database"
	"github.com/mauv0809/tankbot/internal/tank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a migrated database in a temporary directory.
func setupTestStore(t *testing.T) tank.Store {
	t.Helper()

	db, teardown, err := database.InitDB(filepath.Join(t.TempDir(), "tanks.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return tank.NewWithClock(db, func() time.Time { return now })
}

func TestAddTank(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	added, err := store.AddTank(ctx, tank.Spec{Name: "  Tiger II ", Tier: 7, Type: "Heavy"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Tiger II", added.Name)
	assert.Equal(t, tank.Heavy, added.Type)

	got, err := store.GetTank(ctx, "Tiger II")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.Tier)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), got.CreatedAt)

	_, err = store.AddTank(ctx, tank.Spec{Name: "Tiger II", Tier: 7, Type: tank.Heavy}, "admin")
	assert.ErrorIs(t, err, tank.ErrTankExists)

	changes, err := store.Changes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, changes, 1, "Duplicate add must not be audited")
	assert.Equal(t, tank.ActionAdd, changes[0].Action)
	assert.Equal(t, "Tiger II|tier=7|type=heavy", changes[0].Details)
	assert.Equal(t, "admin", changes[0].Actor)
}

func TestAddTank_Validation(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	tests := []struct {
		name string
		spec tank.Spec
	}{
		{"empty name", tank.Spec{Name: "  ", Tier: 5, Type: tank.Medium}},
		{"multi-line name", tank.Spec{Name: "T-34\n85", Tier: 5, Type: tank.Medium}},
		{"tier too low", tank.Spec{Name: "T-34", Tier: 0, Type: tank.Medium}},
		{"tier too high", tank.Spec{Name: "T-34", Tier: 11, Type: tank.Medium}},
		{"unknown type", tank.Spec{Name: "T-34", Tier: 5, Type: "spg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AddTank(ctx, tt.spec, "admin")
			assert.ErrorIs(t, err, tank.ErrValidation)
		})
	}

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Tanks)
}

func TestEditTank_ReturnsOldAndNewBucket(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.AddTank(ctx, tank.Spec{Name: "Tiger II", Tier: 7, Type: tank.Heavy}, "admin")
	require.NoError(t, err)

	old, updated, err := store.EditTank(ctx, tank.Spec{Name: "Tiger II", Tier: 8, Type: tank.Heavy}, "admin")
	require.NoError(t, err)
	assert.Equal(t, tank.Bucket{Tier: 7, Type: tank.Heavy}, old.Bucket())
	assert.Equal(t, tank.Bucket{Tier: 8, Type: tank.Heavy}, updated.Bucket())

	inSeven, err := store.ListTanks(ctx, tank.Filter{Tier: 7, Type: tank.Heavy})
	require.NoError(t, err)
	assert.Empty(t, inSeven)

	_, _, err = store.EditTank(ctx, tank.Spec{Name: "Maus", Tier: 10, Type: tank.Heavy}, "admin")
	assert.ErrorIs(t, err, tank.ErrTankNotFound)
}

func TestRemoveTank(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.AddTank(ctx, tank.Spec{Name: "Tiger II", Tier: 7, Type: tank.Heavy}, "admin")
	require.NoError(t, err)
	_, err = store.AddTank(ctx, tank.Spec{Name: "IS-3", Tier: 8, Type: tank.Heavy}, "admin")
	require.NoError(t, err)
	_, err = store.InsertSubmission(ctx, tank.NewSubmission{Player: "Anna", TankName: "Tiger II", Score: 500, SubmittedBy: "cmdr"})
	require.NoError(t, err)

	t.Run("rejected while submissions exist", func(t *testing.T) {
		_, err := store.RemoveTank(ctx, "Tiger II", "admin")
		assert.ErrorIs(t, err, tank.ErrTankHasSubmissions)

		got, err := store.GetTank(ctx, "Tiger II")
		require.NoError(t, err)
		assert.NotNil(t, got, "Tank must still exist")
	})

	t.Run("accepted and audited without submissions", func(t *testing.T) {
		removed, err := store.RemoveTank(ctx, "IS-3", "admin")
		require.NoError(t, err)
		assert.Equal(t, 8, removed.Tier)

		got, err := store.GetTank(ctx, "IS-3")
		require.NoError(t, err)
		assert.Nil(t, got)

		changes, err := store.Changes(ctx, 1)
		require.NoError(t, err)
		require.Len(t, changes, 1)
		assert.Equal(t, tank.ActionRemove, changes[0].Action)
		assert.Equal(t, "IS-3", changes[0].Details)
	})

	t.Run("unknown tank", func(t *testing.T) {
		_, err := store.RemoveTank(ctx, "Maus", "admin")
		assert.ErrorIs(t, err, tank.ErrTankNotFound)
	})
}

func TestInsertSubmission(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	_, err := store.AddTank(ctx, tank.Spec{Name: "Tiger II", Tier: 7, Type: tank.Heavy}, "admin")
	require.NoError(t, err)

	first, err := store.InsertSubmission(ctx, tank.NewSubmission{Player: "  Anna ", TankName: "Tiger II", Score: 500, SubmittedBy: "cmdr"})
	require.NoError(t, err)
	second, err := store.InsertSubmission(ctx, tank.NewSubmission{Player: "ANNA", TankName: "Tiger II", Score: 400, SubmittedBy: "cmdr"})
	require.NoError(t, err)

	assert.Less(t, first.ID, second.ID, "Ids define the total order")
	assert.Equal(t, "Anna", first.PlayerRaw)
	assert.Equal(t, "anna", first.PlayerNorm)
	assert.Equal(t, first.PlayerNorm, second.PlayerNorm)

	_, err = store.InsertSubmission(ctx, tank.NewSubmission{Player: "Anna", TankName: "Maus", Score: 1, SubmittedBy: "cmdr"})
	assert.ErrorIs(t, err, tank.ErrTankNotFound)

	has, err := store.HasSubmissions(ctx, "Tiger II")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestBuckets_CrossProduct(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for _, spec := range []tank.Spec{
		{Name: "Tiger II", Tier: 7, Type: tank.Heavy},
		{Name: "IS-3", Tier: 8, Type: tank.Heavy},
		{Name: "T-34", Tier: 5, Type: tank.Medium},
	} {
		_, err := store.AddTank(ctx, spec, "admin")
		require.NoError(t, err)
	}

	buckets, err := store.Buckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []tank.Bucket{
		{Tier: 5, Type: tank.Heavy},
		{Tier: 7, Type: tank.Heavy},
		{Tier: 8, Type: tank.Heavy},
		{Tier: 5, Type: tank.Medium},
		{Tier: 7, Type: tank.Medium},
		{Tier: 8, Type: tank.Medium},
	}, buckets)
}

func TestMappings(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	bucket := tank.Bucket{Tier: 7, Type: tank.Heavy}

	m, err := store.Mapping(ctx, bucket)
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, store.SetMapping(ctx, tank.Mapping{Bucket: bucket, ThreadID: "111", ForumID: "900"}))
	require.NoError(t, store.SetMapping(ctx, tank.Mapping{Bucket: bucket, ThreadID: "222", ForumID: "900"}))

	m, err = store.Mapping(ctx, bucket)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "222", m.ThreadID, "Stale mapping should be replaced")

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Mappings)
}

func TestChanges_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for i := 1; i <= 3; i++ {
		_, err := store.AddTank(ctx, tank.Spec{Name: string(rune('A' + i)), Tier: i, Type: tank.Light}, "admin")
		require.NoError(t, err)
	}

	changes, err := store.Changes(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, changes, 1)

	changes, err = store.Changes(ctx, 500)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.Equal(t, "D|tier=3|type=light", changes[0].Details, "Newest entry first")
}
