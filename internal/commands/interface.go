package commands

import (
	"context"

	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

// Ranker defines the ranking queries used by the highscore commands.
type Ranker interface {
	BestForTank(ctx context.Context, name string) (*ranking.Record, error)
	Champion(ctx context.Context, filter tank.Filter) (*ranking.Record, error)
	Qualify(ctx context.Context, tankName string, score int) (ranking.Qualification, error)
	Recent(ctx context.Context, limit int) ([]ranking.Record, error)
	TopHoldersByTank(ctx context.Context, limit int) ([]ranking.Holder, error)
	TopHoldersByBucket(ctx context.Context, limit int) ([]ranking.Holder, error)
}

// SideEffects queues the work that follows a committed write.
type SideEffects interface {
	AfterSubmission(sub tank.Submission, t tank.Tank, previous *ranking.Record)
	AfterRosterChange(buckets ...tank.Bucket)
}

// Indexer rebuilds the mirrored forum threads.
type Indexer interface {
	Enabled() bool
	RebuildAll(ctx context.Context) error
	RebuildMissing(ctx context.Context) (int, error)
}

// Backups drives the backup pipeline.
type Backups interface {
	Enabled() bool
	CreateBackupNow(ctx context.Context) (backup.Result, error)
	VerifyLatest(ctx context.Context, scanLimit int) (backup.VerifyResult, error)
	LastBackupStatus() backup.Status
}
