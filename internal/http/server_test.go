package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/mauv0809/tankbot/internal/database"
	"github.com/mauv0809/tankbot/internal/metrics"
	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "s3cret"

type staticStatus backup.Status

func (s staticStatus) LastBackupStatus() backup.Status { return backup.Status(s) }

// setupTestServer initializes a dashboard over a seeded test database.
func setupTestServer(t *testing.T) *Server {
	t.Helper()
	db, teardown, err := database.InitDB(filepath.Join(t.TempDir(), "dashboard.db"), "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	ctx := context.Background()
	store := tank.NewWithClock(db, func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) })
	_, err = store.AddTank(ctx, tank.Spec{Name: "Tiger II", Tier: 7, Type: tank.Heavy}, "admin")
	require.NoError(t, err)
	_, err = store.AddTank(ctx, tank.Spec{Name: "<script>", Tier: 1, Type: tank.Light}, "admin")
	require.NoError(t, err)
	_, err = store.InsertSubmission(ctx, tank.NewSubmission{Player: "Alice", TankName: "Tiger II", Score: 500, SubmittedBy: "cmdr"})
	require.NoError(t, err)

	counters := metrics.New(db)
	counters.Increment(metrics.KeyBackupsDelivered)

	reg := prometheus.NewRegistry()
	svc := metrics.NewService(reg)
	svc.IncSubmissions()

	status := staticStatus{Enabled: true, NextRun: time.Date(2024, 3, 3, 3, 0, 0, 0, time.UTC), Location: "UTC"}
	return NewServer(store, ranking.New(db), status, counters, metrics.NewMetricsHandler(reg), testToken, time.Now())
}

func get(s *Server, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestAuth(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		target string
		header []string
		want   int
	}{
		{"no token", "/healthz", nil, http.StatusForbidden},
		{"wrong token", "/healthz?token=nope", nil, http.StatusForbidden},
		{"query token", "/healthz?token=" + testToken, nil, http.StatusOK},
		{"bearer token", "/healthz", []string{"Authorization", "Bearer " + testToken}, http.StatusOK},
		{"wrong bearer overrides query", "/healthz?token=" + testToken, []string{"Authorization", "Bearer nope"}, http.StatusForbidden},
		{"metrics protected", "/metrics", nil, http.StatusForbidden},
		{"unknown path", "/nope?token=" + testToken, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(s, tt.target, tt.header...)
			assert.Equal(t, tt.want, rr.Code)
		})
	}

	rr := get(s, "/healthz?token="+testToken)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestAuth_EmptyTokenDeniesAll(t *testing.T) {
	s := setupTestServer(t)
	s.Token = ""
	assert.Equal(t, http.StatusForbidden, get(s, "/healthz?token=").Code)
}

func TestRateLimit(t *testing.T) {
	s := setupTestServer(t)
	for i := 0; i < RequestsPerMinute; i++ {
		require.Equal(t, http.StatusOK, get(s, "/healthz?token="+testToken).Code, "request %d", i)
	}
	rr := get(s, "/healthz?token="+testToken)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Unauthenticated requests count too.
	other := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	other.RemoteAddr = "10.0.0.9:1234"
	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusForbidden, rr.Code, "Other clients have their own budget")
}

func TestPages(t *testing.T) {
	s := setupTestServer(t)

	rr := get(s, "/?token="+testToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "<b>Tanks:</b> 2")
	assert.Contains(t, body, "<b>500</b> — Alice (Tiger II) <code>#1</code> 2024-03-01T12:00:00Z")
	assert.Contains(t, body, "Next: <code>2024-03-03T03:00:00Z</code>")

	rr = get(s, "/tanks?token="+testToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<td>Tiger II</td><td>7</td><td>heavy</td>")
	assert.Contains(t, rr.Body.String(), "&lt;script&gt;")
	assert.NotContains(t, rr.Body.String(), "<td><script>")

	rr = get(s, "/recent?token="+testToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Recent submissions (last 1)")
	assert.Contains(t, rr.Body.String(), "<td><code>#1</code></td><td>Alice</td>")
}

func TestStatusAndMetrics(t *testing.T) {
	s := setupTestServer(t)

	rr := get(s, "/api/status", "Authorization", "Bearer "+testToken)
	require.Equal(t, http.StatusOK, rr.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, 2, st.Tanks)
	assert.Equal(t, 1, st.Submissions)
	require.NotNil(t, st.Champion)
	assert.Equal(t, "Alice", st.Champion.Player)
	assert.True(t, st.Backup.Enabled)
	assert.Equal(t, 1, st.Counters[metrics.KeyBackupsDelivered])

	rr = get(s, "/metrics?token="+testToken)
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tankbot_submissions_total 1")
}

func TestVerbose_IsRequestScoped(t *testing.T) {
	original := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	t.Cleanup(func() { log.SetLevel(original) })

	var mu sync.Mutex
	var levels []log.Level
	inside := make(chan struct{}, 2)
	release := make(chan struct{})
	h := paramsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		levels = append(levels, log.FromContext(r.Context()).GetLevel())
		mu.Unlock()
		inside <- struct{}{}
		<-release
	}))

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?verbose=true", nil))
		}()
	}
	<-inside
	<-inside
	assert.Equal(t, log.InfoLevel, log.GetLevel(), "Overlapping verbose requests leave the process level alone")
	close(release)
	wg.Wait()

	assert.Equal(t, []log.Level{log.DebugLevel, log.DebugLevel}, levels)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestVerbose_RequiresAuth(t *testing.T) {
	original := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	t.Cleanup(func() { log.SetLevel(original) })

	s := setupTestServer(t)
	reached := false
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}), s.rateLimitMiddleware, s.authMiddleware, paramsMiddleware)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?verbose=true", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, reached, "Unauthenticated requests never reach the request logger")

	rr = get(s, "/healthz?verbose=true&token="+testToken)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestIPLimiter_EvictsIdleAddresses(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(RequestsPerMinute)
	l.now = func() time.Time { return clock }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))

	clock = clock.Add(5 * time.Minute)
	assert.True(t, l.allow("10.0.0.2"))

	clock = clock.Add(6 * time.Minute)
	assert.True(t, l.allow("10.0.0.3"))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "10.0.0.1", "Idle address is dropped")
	assert.Contains(t, l.visitors, "10.0.0.2")
	assert.Contains(t, l.visitors, "10.0.0.3")
}
