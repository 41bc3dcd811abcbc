package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/metrics"
	"github.com/mauv0809/tankbot/internal/tank"
)

func NewServer(tanks tank.Store, ranker Ranker, backups BackupStatus, counters metrics.MetricsStore, metricsHandler http.Handler, token string, startedAt time.Time) *Server {
	server := &Server{
		Tanks:          tanks,
		Ranking:        ranker,
		Backups:        backups,
		Counters:       counters,
		MetricsHandler: metricsHandler,
		Token:          token,
		StartedAt:      startedAt,
		Router:         http.NewServeMux(),
		limiter:        newIPLimiter(RequestsPerMinute),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// Every route is rate limited first, then authenticated, including /healthz.
	// e.g. Chain(s.MyHandler(), s.rateLimitMiddleware, s.authMiddleware, paramsMiddleware)
	protect := func(h http.Handler) http.Handler {
		return Chain(h, s.rateLimitMiddleware, s.authMiddleware, paramsMiddleware)
	}
	s.Router.Handle("/metrics", protect(s.MetricsHandler))
	s.Router.Handle("/healthz", protect(s.HealthCheckHandler()))
	s.Router.Handle("/api/status", protect(s.StatusHandler()))
	s.Router.Handle("/tanks", protect(s.TanksHandler()))
	s.Router.Handle("/recent", protect(s.RecentHandler()))
	s.Router.Handle("/", protect(s.OverviewHandler()))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("Dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("Dashboard stopped")
	return nil
}
