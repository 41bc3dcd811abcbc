package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier mirrors record announcements into a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
	}
}

// AnnounceRecord posts the announcement as a Block Kit message.
func (s *Notifier) AnnounceRecord(ctx context.Context, a notifier.Announcement) error {
	_, _, err := s.sendMessage(ctx, formatAnnouncement(a))
	return err
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionText(message.Text, false),
	)
	if err != nil {
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// formatAnnouncement creates the Slack message for a new record using Block Kit.
func formatAnnouncement(a notifier.Announcement) slack.Message {
	r := a.Record
	blocks := make([]slack.Block, 0, 3)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 New tank record", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("*%d* by *%s* on *%s* (Tier %d, %s)", r.Score, r.Player, r.TankName, r.Tier, r.Type.Label())
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", detailsText, false, false), nil, nil))

	var contextElements []slack.MixedElement
	if a.Previous != nil {
		prev := fmt.Sprintf("Previous record: %d by %s", a.Previous.Score, a.Previous.Player)
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", prev, true, false))
	}
	if a.Global {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", "🌍 New global champion!", true, false))
	}
	if len(contextElements) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", contextElements...))
	}

	msg := slack.NewBlockMessage(blocks...)
	msg.Text = fmt.Sprintf("New tank record: %d by %s on %s", r.Score, r.Player, r.TankName)
	return msg
}
