package forum

import (
	"context"

	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

// ThreadAPI is the subset of the chat platform the mirror needs.
type ThreadAPI interface {
	Forum(ctx context.Context, forumID string) (Forum, error)
	// EnsureTags creates the missing tags and returns the updated forum.
	EnsureTags(ctx context.Context, forumID string, names []string) (Forum, error)
	CreateThread(ctx context.Context, forumID, title, content string, tagIDs []string) (Thread, error)
	Thread(ctx context.Context, threadID string) (Thread, error)
	EditThread(ctx context.Context, threadID, title string, tagIDs []string) error
	EditStarter(ctx context.Context, threadID, content string) error
	PinStarter(ctx context.Context, threadID string) error
	SetLocked(ctx context.Context, threadID string, locked bool) error
}

// Store is the part of the entity store holding bucket mappings.
type Store interface {
	Mapping(ctx context.Context, bucket tank.Bucket) (*tank.Mapping, error)
	SetMapping(ctx context.Context, m tank.Mapping) error
	Buckets(ctx context.Context) ([]tank.Bucket, error)
}

// Ranker computes the standings rendered into a thread.
type Ranker interface {
	BucketStandings(ctx context.Context, bucket tank.Bucket) (ranking.Standings, error)
}
