package processor

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/metrics"
	"github.com/mauv0809/tankbot/internal/notifier"
	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

// New creates a new Processor. notifier may be nil when announcements are off.
func New(syncer Syncer, ranker Ranker, notifier Notifier, m metrics.Metrics, counters metrics.MetricsStore) *Processor {
	return &Processor{
		syncer:   syncer,
		ranker:   ranker,
		notifier: notifier,
		metrics:  m,
		counters: counters,
	}
}

// AfterSubmission refreshes the tank's bucket and announces the submission if it
// became the tank's record. previous is the record before the insert, if any.
func (p *Processor) AfterSubmission(sub tank.Submission, t tank.Tank, previous *ranking.Record) {
	p.metrics.IncSubmissions()
	p.goAsync("submission", func(ctx context.Context) {
		p.syncBucket(ctx, t.Bucket())
		p.announceIfRecord(ctx, sub, t, previous)
	})
}

// AfterRosterChange refreshes every affected bucket.
func (p *Processor) AfterRosterChange(buckets ...tank.Bucket) {
	if len(buckets) == 0 {
		return
	}
	p.goAsync("roster change", func(ctx context.Context) {
		seen := make(map[tank.Bucket]struct{}, len(buckets))
		for _, b := range buckets {
			if _, ok := seen[b]; ok {
				continue
			}
			seen[b] = struct{}{}
			p.syncBucket(ctx, b)
		}
	})
}

// Wait blocks until every queued side effect has finished.
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) goAsync(what string, fn func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), TaskTimeout)
		defer cancel()
		log.Debug("Running side effects", "trigger", what)
		fn(ctx)
	}()
}

func (p *Processor) syncBucket(ctx context.Context, b tank.Bucket) {
	if err := p.syncer.TargetedUpdate(ctx, b); err != nil {
		log.Error("Failed to update bucket thread", "error", err, "tier", b.Tier, "type", b.Type)
	}
}

func (p *Processor) announceIfRecord(ctx context.Context, sub tank.Submission, t tank.Tank, previous *ranking.Record) {
	if p.notifier == nil {
		return
	}
	best, err := p.ranker.BestForTank(ctx, t.Name)
	if err != nil {
		log.Error("Failed to load tank record", "error", err, "tank", t.Name)
		return
	}
	if best == nil || best.SubmissionID != sub.ID {
		log.Debug("Submission is not a new record", "id", sub.ID, "tank", t.Name)
		return
	}

	a := notifier.Announcement{Record: *best}
	if previous != nil && previous.SubmissionID != sub.ID {
		a.Previous = previous
	}
	champ, err := p.ranker.Champion(ctx, tank.Filter{})
	if err != nil {
		log.Warn("Failed to load global champion", "error", err)
	} else if champ != nil && champ.SubmissionID == sub.ID {
		a.Global = true
	}

	if err := p.notifier.AnnounceRecord(ctx, a); err != nil {
		p.metrics.IncAnnouncementsFailed()
		log.Error("Failed to announce new record", "error", err, "tank", t.Name, "id", sub.ID)
		return
	}
	p.metrics.IncAnnouncementsSent()
	p.counters.Increment(metrics.KeyRecordsAnnounced)
	log.Info("New tank record announced", "tank", t.Name, "score", sub.Score, "global", a.Global)
}
