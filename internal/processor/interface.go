package processor

import (
	"context"

	"github.com/mauv0809/tankbot/internal/notifier"
	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

// Syncer refreshes the mirrored forum thread of a bucket.
type Syncer interface {
	TargetedUpdate(ctx context.Context, bucket tank.Bucket) error
}

// Ranker defines the ranking queries required by the processor.
type Ranker interface {
	BestForTank(ctx context.Context, name string) (*ranking.Record, error)
	Champion(ctx context.Context, filter tank.Filter) (*ranking.Record, error)
}

// Notifier defines the notification operations required by the processor.
// This is an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
