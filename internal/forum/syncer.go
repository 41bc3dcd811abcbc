package forum

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/metrics"
	"github.com/mauv0809/tankbot/internal/tank"
)

// Syncer keeps one locked forum thread per bucket in step with the standings.
type Syncer struct {
	api      ThreadAPI
	store    Store
	ranker   Ranker
	metrics  metrics.Metrics
	counters metrics.MetricsStore
	forumID  string

	// Updates of one bucket are serialised so two runs never both create its
	// thread. Different buckets proceed in parallel.
	mu      sync.Mutex
	buckets map[tank.Bucket]*sync.Mutex
	// tagMu keeps concurrent buckets from creating the same shared tag twice.
	tagMu sync.Mutex
}

// NewSyncer creates a new Syncer. An empty forumID disables mirroring.
func NewSyncer(api ThreadAPI, store Store, ranker Ranker, forumID string, m metrics.Metrics, counters metrics.MetricsStore) *Syncer {
	return &Syncer{
		api:      api,
		store:    store,
		ranker:   ranker,
		metrics:  m,
		counters: counters,
		forumID:  forumID,
		buckets:  map[tank.Bucket]*sync.Mutex{},
	}
}

func (s *Syncer) bucketLock(bucket tank.Bucket) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.buckets[bucket]
	if !ok {
		l = &sync.Mutex{}
		s.buckets[bucket] = l
	}
	return l
}

// Enabled reports whether a forum channel is configured.
func (s *Syncer) Enabled() bool {
	return s.forumID != ""
}

// TargetedUpdate brings the thread of one bucket up to date, creating it
// when no usable thread is mapped.
func (s *Syncer) TargetedUpdate(ctx context.Context, bucket tank.Bucket) error {
	if !s.Enabled() {
		log.Debug("Forum mirror disabled, skipping update", "bucket", bucket)
		return nil
	}
	l := s.bucketLock(bucket)
	l.Lock()
	defer l.Unlock()

	if err := s.upsert(ctx, bucket); err != nil {
		s.metrics.IncBucketSyncFailed()
		log.Error("Failed to update bucket thread", "bucket", bucket, "error", err)
		return err
	}
	s.metrics.IncBucketSyncs()
	return nil
}

// RebuildAll updates every bucket of the roster's tiers and types. It keeps
// going past failing buckets and returns their errors joined.
func (s *Syncer) RebuildAll(ctx context.Context) error {
	buckets, err := s.store.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list buckets: %w", err)
	}
	var errs []error
	for _, b := range buckets {
		if err := s.TargetedUpdate(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b, err))
		}
	}
	log.Info("Rebuilt bucket threads", "buckets", len(buckets), "failed", len(errs))
	return errors.Join(errs...)
}

// RebuildMissing creates threads only for buckets that have no mapping and
// returns how many were created. Running it twice creates nothing the second time.
func (s *Syncer) RebuildMissing(ctx context.Context) (int, error) {
	buckets, err := s.store.Buckets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list buckets: %w", err)
	}
	created := 0
	var errs []error
	for _, b := range buckets {
		m, err := s.store.Mapping(ctx, b)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b, err))
			continue
		}
		if m != nil {
			continue
		}
		if err := s.TargetedUpdate(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b, err))
			continue
		}
		created++
	}
	log.Info("Created missing bucket threads", "created", created, "failed", len(errs))
	return created, errors.Join(errs...)
}

func (s *Syncer) upsert(ctx context.Context, bucket tank.Bucket) error {
	forum, err := s.api.Forum(ctx, s.forumID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrForumUnavailable, err)
	}
	forum = s.ensureTags(ctx, forum, bucket)

	var tagIDs []string
	for _, name := range TagNames(bucket) {
		if id, ok := forum.TagID(name); ok {
			tagIDs = append(tagIDs, id)
		}
	}

	standings, err := s.ranker.BucketStandings(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to compute standings: %w", err)
	}
	title, content := Title(bucket), Render(standings)

	mapping, err := s.store.Mapping(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to load mapping: %w", err)
	}
	if mapping == nil {
		return s.create(ctx, forum, bucket, title, content, tagIDs)
	}
	if mapping.ForumID != forum.ID {
		log.Warn("Bucket mapped to another forum, recreating thread", "bucket", bucket, "mapped_forum", mapping.ForumID)
		return s.create(ctx, forum, bucket, title, content, tagIDs)
	}
	if _, err := s.api.Thread(ctx, mapping.ThreadID); err != nil {
		log.Warn("Mapped thread unavailable, recreating", "bucket", bucket, "thread_id", mapping.ThreadID, "error", err)
		return s.create(ctx, forum, bucket, title, content, tagIDs)
	}

	id := mapping.ThreadID
	s.bestEffort("unlock", bucket, s.api.SetLocked(ctx, id, false))
	s.bestEffort("edit thread", bucket, s.api.EditThread(ctx, id, title, tagIDs))
	s.bestEffort("edit starter", bucket, s.api.EditStarter(ctx, id, content))
	s.bestEffort("pin", bucket, s.api.PinStarter(ctx, id))
	s.bestEffort("lock", bucket, s.api.SetLocked(ctx, id, true))
	log.Debug("Bucket thread updated", "bucket", bucket, "thread_id", id)
	return nil
}

func (s *Syncer) create(ctx context.Context, forum Forum, bucket tank.Bucket, title, content string, tagIDs []string) error {
	thread, err := s.api.CreateThread(ctx, forum.ID, title, content, tagIDs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrThreadCreate, err)
	}
	err = s.store.SetMapping(ctx, tank.Mapping{Bucket: bucket, ThreadID: thread.ID, ForumID: forum.ID})
	if err != nil {
		return fmt.Errorf("failed to store mapping for thread %s: %w", thread.ID, err)
	}
	s.counters.Increment(metrics.KeyThreadsCreated)

	s.bestEffort("pin", bucket, s.api.PinStarter(ctx, thread.ID))
	s.bestEffort("lock", bucket, s.api.SetLocked(ctx, thread.ID, true))
	log.Info("Bucket thread created", "tier", bucket.Tier, "type", bucket.Type, "thread_id", thread.ID)
	return nil
}

// ensureTags creates the bucket's missing tags. Failure leaves the thread untagged.
func (s *Syncer) ensureTags(ctx context.Context, forum Forum, bucket tank.Bucket) Forum {
	var missing []string
	for _, name := range TagNames(bucket) {
		if _, ok := forum.TagID(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return forum
	}
	s.tagMu.Lock()
	defer s.tagMu.Unlock()
	updated, err := s.api.EnsureTags(ctx, forum.ID, missing)
	if err != nil {
		s.bestEffort("create tags", bucket, err)
		return forum
	}
	return updated
}

// bestEffort logs and drops the error of an auxiliary step.
func (s *Syncer) bestEffort(op string, bucket tank.Bucket, err error) {
	if err != nil {
		log.Warn("Forum operation failed", "op", op, "bucket", bucket, "error", err)
	}
}
