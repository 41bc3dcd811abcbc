package backup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu       sync.Mutex
	runs     []Reason
	failures []error
	err      error
	onRun    func()
}

func (r *fakeRunner) Run(_ context.Context, reason Reason) (Result, error) {
	if r.onRun != nil {
		r.onRun()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, reason)
	if r.err != nil {
		return Result{}, r.err
	}
	return Result{Filename: "highscores_backup_20240303_030000Z.zip"}, nil
}

func (r *fakeRunner) ReportFailure(_ context.Context, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestNextWeeklyRun(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	// 2024-03-06 is a Wednesday.
	tests := []struct {
		name    string
		now     time.Time
		weekday int
		want    time.Time
	}{
		{
			name:    "Later this week",
			now:     time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC),
			weekday: 6,
			want:    time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "Later today",
			now:     time.Date(2024, 3, 6, 2, 59, 0, 0, time.UTC),
			weekday: 2,
			want:    time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "Slot just passed rolls a full week",
			now:     time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC),
			weekday: 2,
			want:    time.Date(2024, 3, 13, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "Earlier weekday means next week",
			now:     time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC),
			weekday: 0,
			want:    time.Date(2024, 3, 11, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "Wall clock kept across DST",
			now:     time.Date(2024, 3, 27, 12, 0, 0, 0, helsinki),
			weekday: 0,
			want:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextWeeklyRun(tt.now, tt.weekday, 3, 0)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestScheduler_FiresOncePerSlot(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)}
	runner := &fakeRunner{}
	s := NewScheduler(runner, Schedule{Weekday: 6, Hour: 3, Location: time.UTC}, true, clock.Now)

	slot := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	assert.True(t, slot.Equal(s.NextRun()))
	assert.False(t, s.Tick(ctx), "Too early")

	clock.Set(slot)
	assert.True(t, s.Tick(ctx))
	assert.False(t, s.Tick(ctx), "Same slot never fires twice")
	clock.Set(slot.Add(time.Minute))
	assert.False(t, s.Tick(ctx))

	assert.Equal(t, []Reason{ReasonScheduled}, runner.runs)
	assert.True(t, slot.AddDate(0, 0, 7).Equal(s.NextRun()))

	st := s.Status()
	assert.True(t, st.Enabled)
	assert.True(t, st.HasRun)
	assert.True(t, st.LastOK)
	assert.Equal(t, "highscores_backup_20240303_030000Z.zip", st.LastMessage)
	assert.Equal(t, "UTC", st.Location)
}

func TestScheduler_StartedAfterSlotWaitsAWeek(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 3, 30, 0, 0, time.UTC)}
	runner := &fakeRunner{}
	s := NewScheduler(runner, Schedule{Weekday: 6, Hour: 3, Location: time.UTC}, true, clock.Now)

	assert.False(t, s.Tick(context.Background()))
	assert.True(t, time.Date(2024, 3, 17, 3, 0, 0, 0, time.UTC).Equal(s.NextRun()))
	assert.Empty(t, runner.runs)
}

func TestScheduler_AdvancesBeforeRunning(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 3, 10, 2, 59, 0, 0, time.UTC)}
	runner := &fakeRunner{}
	s := NewScheduler(runner, Schedule{Weekday: 6, Hour: 3, Location: time.UTC}, true, clock.Now)
	clock.Set(time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC))

	var reentrant bool
	runner.onRun = func() {
		// a poll arriving while the slow delivery is still running
		reentrant = s.Tick(ctx)
	}
	assert.True(t, s.Tick(ctx))
	assert.False(t, reentrant)
	assert.Len(t, runner.runs, 1)
}

func TestScheduler_RecordsFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)}
	boom := &StepError{Step: StepDeliver, Err: errors.New("missing access")}
	runner := &fakeRunner{err: boom}
	s := NewScheduler(runner, Schedule{Weekday: 6, Hour: 3, Location: time.UTC}, true, clock.Now)
	clock.Set(time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC))

	require.True(t, s.Tick(context.Background()))
	st := s.Status()
	assert.False(t, st.LastOK)
	assert.Equal(t, "deliver: missing access", st.LastMessage)
	assert.Equal(t, []error{boom}, runner.failures)
}

func TestScheduler_Disabled(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)}
	runner := &fakeRunner{}
	s := NewScheduler(runner, Schedule{Weekday: 6, Hour: 3}, false, clock.Now)
	clock.Set(clock.Now().AddDate(0, 0, 30))

	assert.False(t, s.Tick(context.Background()))
	assert.False(t, s.Status().Enabled)
	assert.Empty(t, runner.runs)
}
