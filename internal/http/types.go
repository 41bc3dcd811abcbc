package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/mauv0809/tankbot/internal/metrics"
	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

// Ranker defines the ranking queries shown on the dashboard.
type Ranker interface {
	Champion(ctx context.Context, filter tank.Filter) (*ranking.Record, error)
	Recent(ctx context.Context, limit int) ([]ranking.Record, error)
}

// BackupStatus reports the state of the backup scheduler.
type BackupStatus interface {
	LastBackupStatus() backup.Status
}

// Server is the read-only dashboard.
type Server struct {
	Tanks          tank.Store
	Ranking        Ranker
	Backups        BackupStatus
	Counters       metrics.MetricsStore
	MetricsHandler http.Handler
	Token          string
	StartedAt      time.Time
	Router         *http.ServeMux
	limiter        *ipLimiter
}

// Status is the body of /api/status.
type Status struct {
	tank.Counts
	Champion      *ranking.Record `json:"champion"`
	Backup        backup.Status   `json:"backup"`
	Counters      map[string]int  `json:"counters"`
	UptimeSeconds int64           `json:"uptime_seconds"`
}

// RecentLimit is how many submissions /recent lists.
const RecentLimit = 50
