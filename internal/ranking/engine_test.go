package ranking_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/tankbot/internal/database"
	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db     *sql.DB
	store  tank.Store
	engine *ranking.Engine
}

func setupFixture(t *testing.T) fixture {
	t.Helper()

	db, teardown, err := database.InitDB(filepath.Join(t.TempDir(), "ranking.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return fixture{
		db:     db,
		store:  tank.NewWithClock(db, func() time.Time { return now }),
		engine: ranking.New(db),
	}
}

func (f fixture) addTank(t *testing.T, name string, tier int, typ tank.Type) {
	t.Helper()
	_, err := f.store.AddTank(context.Background(), tank.Spec{Name: name, Tier: tier, Type: typ}, "admin")
	require.NoError(t, err)
}

func (f fixture) submit(t *testing.T, player, tankName string, score int) tank.Submission {
	t.Helper()
	sub, err := f.store.InsertSubmission(context.Background(), tank.NewSubmission{
		Player: player, TankName: tankName, Score: score, SubmittedBy: "commander",
	})
	require.NoError(t, err)
	return sub
}

func TestBestForTank_TieKeepsEarliest(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.addTank(t, "Tiger II", 7, tank.Heavy)

	best, err := f.engine.BestForTank(ctx, "Tiger II")
	require.NoError(t, err)
	assert.Nil(t, best, "No submissions means no record")

	first := f.submit(t, "Alice", "Tiger II", 500)
	f.submit(t, "Bob", "Tiger II", 500)

	best, err = f.engine.BestForTank(ctx, "Tiger II")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, first.ID, best.SubmissionID)
	assert.Equal(t, "Alice", best.Player)
	assert.Equal(t, 7, best.Tier)
	assert.Equal(t, tank.Heavy, best.Type)

	q, err := f.engine.Qualify(ctx, "Tiger II", 500)
	require.NoError(t, err)
	assert.False(t, q.Qualifies)
	assert.True(t, q.Tie)
	assert.Equal(t, 1, q.Shortfall)
}

func TestChampion(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.addTank(t, "Tiger II", 7, tank.Heavy)
	f.addTank(t, "T-34", 5, tank.Medium)
	f.addTank(t, "IS-3", 8, tank.Heavy)

	champ, err := f.engine.Champion(ctx, tank.Filter{})
	require.NoError(t, err)
	assert.Nil(t, champ)

	f.submit(t, "Alice", "Tiger II", 800)
	f.submit(t, "Bob", "T-34", 900)
	f.submit(t, "Carol", "IS-3", 900)

	champ, err = f.engine.Champion(ctx, tank.Filter{})
	require.NoError(t, err)
	require.NotNil(t, champ)
	assert.Equal(t, "Bob", champ.Player, "Earliest of the tied global scores wins")

	champ, err = f.engine.Champion(ctx, tank.Filter{Type: tank.Heavy})
	require.NoError(t, err)
	require.NotNil(t, champ)
	assert.Equal(t, "Carol", champ.Player)

	champ, err = f.engine.Champion(ctx, tank.Filter{Tier: 7, Type: tank.Heavy})
	require.NoError(t, err)
	require.NotNil(t, champ)
	assert.Equal(t, "Alice", champ.Player)

	champ, err = f.engine.Champion(ctx, tank.Filter{Tier: 10})
	require.NoError(t, err)
	assert.Nil(t, champ)
}

func TestQualify(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.addTank(t, "Tiger II", 7, tank.Heavy)
	f.addTank(t, "T-34", 5, tank.Medium)

	q, err := f.engine.Qualify(ctx, "Tiger II", 300)
	require.NoError(t, err)
	assert.True(t, q.Qualifies, "First record always qualifies")
	assert.Nil(t, q.Current)
	assert.False(t, q.BeatsGlobal, "No champion to beat yet")

	f.submit(t, "Alice", "Tiger II", 500)
	f.submit(t, "Bob", "T-34", 700)

	tests := []struct {
		name        string
		score       int
		qualifies   bool
		margin      int
		shortfall   int
		beatsGlobal bool
	}{
		{name: "Higher", score: 650, qualifies: true, margin: 150},
		{name: "Lower", score: 420, shortfall: 80},
		{name: "Equal", score: 500, shortfall: 1},
		{name: "Beats global", score: 701, qualifies: true, margin: 201, beatsGlobal: true},
		{name: "Ties global", score: 700, qualifies: true, margin: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := f.engine.Qualify(ctx, "Tiger II", tt.score)
			require.NoError(t, err)
			assert.Equal(t, tt.qualifies, q.Qualifies)
			assert.Equal(t, tt.margin, q.Margin)
			assert.Equal(t, tt.shortfall, q.Shortfall)
			assert.Equal(t, tt.beatsGlobal, q.BeatsGlobal)
			require.NotNil(t, q.Global)
			assert.Equal(t, "Bob", q.Global.Player)
		})
	}

	_, err = f.engine.Qualify(ctx, "Maus", 100)
	assert.ErrorIs(t, err, tank.ErrTankNotFound)
}

func TestTopHolders(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.addTank(t, "Tiger II", 7, tank.Heavy)
	f.addTank(t, "IS-3", 8, tank.Heavy)
	f.addTank(t, "T-34", 5, tank.Medium)
	f.addTank(t, "KV-1", 5, tank.Heavy)

	holders, err := f.engine.TopHoldersByTank(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, holders)

	f.submit(t, "Alice", "Tiger II", 500)
	f.submit(t, "bob", "IS-3", 600)
	f.submit(t, "ALICE", "T-34", 400)
	f.submit(t, "Bob", "KV-1", 300)
	f.submit(t, "Carol", "KV-1", 200)

	holders, err = f.engine.TopHoldersByTank(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Holder{
		{Player: "Alice", Tops: 2},
		{Player: "bob", Tops: 2},
	}, holders, "Same count ranks the earliest held record first and names use its spelling")

	holders, err = f.engine.TopHoldersByBucket(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Holder{
		{Player: "Alice", Tops: 2},
		{Player: "bob", Tops: 2},
	}, holders)

	f.submit(t, "Carol", "Tiger II", 501)
	holders, err = f.engine.TopHoldersByBucket(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []ranking.Holder{{Player: "bob", Tops: 2}}, holders)

	holders, err = f.engine.TopHoldersByTank(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, holders, 1, "Limit is clamped to at least one")
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.addTank(t, "Tiger II", 7, tank.Heavy)

	for i := 1; i <= 55; i++ {
		f.submit(t, "Alice", "Tiger II", i)
	}

	recent, err := f.engine.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, 55, recent[0].Score, "Newest first")
	assert.Equal(t, 53, recent[2].Score)

	recent, err = f.engine.Recent(ctx, 500)
	require.NoError(t, err)
	assert.Len(t, recent, 50)
}

func TestBucketStandings(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t)
	f.addTank(t, "Tiger II", 7, tank.Heavy)
	f.addTank(t, "IS", 7, tank.Heavy)
	f.addTank(t, "b-tank", 7, tank.Heavy)
	f.addTank(t, "Alpha", 7, tank.Heavy)
	f.addTank(t, "T-34", 7, tank.Medium)

	f.submit(t, "Alice", "Tiger II", 500)
	f.submit(t, "Bob", "IS", 500)
	f.submit(t, "Carol", "Tiger II", 400)
	f.submit(t, "Dave", "T-34", 9000)

	st, err := f.engine.BucketStandings(ctx, tank.Bucket{Tier: 7, Type: tank.Heavy})
	require.NoError(t, err)
	require.Len(t, st.Scored, 2)
	assert.Equal(t, "Tiger II", st.Scored[0].Tank.Name, "Equal scores keep the earliest submission first")
	assert.Equal(t, "Alice", st.Scored[0].Best.Player)
	assert.Equal(t, "IS", st.Scored[1].Tank.Name)
	require.Len(t, st.Unscored, 2)
	assert.Equal(t, "Alpha", st.Unscored[0].Tank.Name)
	assert.Equal(t, "b-tank", st.Unscored[1].Tank.Name)
	require.NotNil(t, st.Top())
	assert.Equal(t, 500, st.Top().Score)

	empty, err := f.engine.BucketStandings(ctx, tank.Bucket{Tier: 9, Type: tank.Light})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.Top())
}
