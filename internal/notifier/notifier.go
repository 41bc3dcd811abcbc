package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/mauv0809/tankbot/internal/ranking"
)

// Notifier defines a high-level interface for announcing new records.
// This decouples the rest of the application from the specific chat platform.
type Notifier interface {
	AnnounceRecord(ctx context.Context, a Announcement) error
}

// Announcement is a submission that just became its tank's record.
type Announcement struct {
	Record ranking.Record
	// Previous is the record it replaced, nil for a tank's first score.
	Previous *ranking.Record
	// Global is set when the record is also the new global champion.
	Global bool
}

// Text renders the announcement as a chat message.
func (a Announcement) Text() string {
	r := a.Record
	msg := fmt.Sprintf("🏆 **NEW TANK RECORD** — **%d** by **%s** on **%s** (Tier %d, %s)",
		r.Score, r.Player, r.TankName, r.Tier, r.Type.Label())
	if a.Previous != nil {
		msg += fmt.Sprintf("\nPrevious record: %d by %s", a.Previous.Score, a.Previous.Player)
	}
	if a.Global {
		msg += "\n🌍 New global champion!"
	}
	return msg
}

// Fanout sends every announcement to all of its notifiers.
type Fanout []Notifier

// AnnounceRecord tries every notifier and joins their errors.
func (f Fanout) AnnounceRecord(ctx context.Context, a Announcement) error {
	var errs []error
	for _, n := range f {
		if err := n.AnnounceRecord(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
