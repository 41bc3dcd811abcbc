package discord

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/notifier"
)

// messageSender is the part of the Discord client used to post announcements.
type messageSender interface {
	SendMessage(ctx context.Context, channelID, content string) error
}

var _ notifier.Notifier = &Notifier{}

// Notifier posts record announcements to a Discord channel.
type Notifier struct {
	sender    messageSender
	channelID string
}

// NewNotifier creates a new Notifier.
func NewNotifier(sender messageSender, channelID string) *Notifier {
	return &Notifier{
		sender:    sender,
		channelID: channelID,
	}
}

func (n *Notifier) AnnounceRecord(ctx context.Context, a notifier.Announcement) error {
	if err := n.sender.SendMessage(ctx, n.channelID, a.Text()); err != nil {
		return fmt.Errorf("failed to announce record in channel %s: %w", n.channelID, err)
	}
	log.Info("Announced new tank record", "tank", a.Record.TankName, "score", a.Record.Score, "channel", n.channelID)
	return nil
}
