package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/mauv0809/tankbot/internal/forum"
)

var (
	_ forum.ThreadAPI = (*Client)(nil)
	_ backup.Channel  = (*Client)(nil)
)

// NewClient creates a session for the bot token. The session is not opened.
func NewClient(token, guildID string) (*Client, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	return NewClientWithSession(s, guildID), nil
}

// NewClientWithSession wraps an existing session. Used for testing.
func NewClientWithSession(s *discordgo.Session, guildID string) *Client {
	hc := s.Client
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{session: s, guildID: guildID, http: hc}
}

// Session exposes the underlying session.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

// Open connects the gateway.
func (c *Client) Open() error {
	return c.session.Open()
}

// Close disconnects the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

// SendMessage posts plain content to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) error {
	_, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

// Send posts a backup file with its description.
func (c *Client) Send(ctx context.Context, channelID string, d backup.Delivery) error {
	_, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: d.Content,
		Files: []*discordgo.File{{
			Name:        d.Filename,
			ContentType: "application/octet-stream",
			Reader:      bytes.NewReader(d.Data),
		}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", d.Filename, err)
	}
	log.Debug("Uploaded file", "channel", channelID, "file", d.Filename, "size", len(d.Data))
	return nil
}

// Post sends a plain message to a channel.
func (c *Client) Post(ctx context.Context, channelID, content string) error {
	return c.SendMessage(ctx, channelID, content)
}

// History returns up to limit recent messages, newest first.
func (c *Client) History(ctx context.Context, channelID string, limit int) ([]backup.Message, error) {
	msgs, err := pageHistory(limit, func(beforeID string, n int) ([]*discordgo.Message, error) {
		return c.session.ChannelMessages(channelID, n, beforeID, "", "", discordgo.WithContext(ctx))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read channel history: %w", err)
	}
	return toMessages(msgs), nil
}

// pageHistory walks backwards through history in pages of at most
// MaxHistoryPage until limit messages are read or the channel runs out.
func pageHistory(limit int, fetch func(beforeID string, n int) ([]*discordgo.Message, error)) ([]*discordgo.Message, error) {
	var out []*discordgo.Message
	beforeID := ""
	for len(out) < limit {
		n := min(limit-len(out), MaxHistoryPage)
		page, err := fetch(beforeID, n)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < n {
			break
		}
		beforeID = page[len(page)-1].ID
	}
	return out, nil
}

func toMessages(msgs []*discordgo.Message) []backup.Message {
	out := make([]backup.Message, 0, len(msgs))
	for _, m := range msgs {
		bm := backup.Message{ID: m.ID}
		for _, a := range m.Attachments {
			bm.Attachments = append(bm.Attachments, backup.Attachment{Filename: a.Filename, URL: a.URL})
		}
		out = append(out, bm)
	}
	return out
}

// Download fetches an attachment.
func (c *Client) Download(ctx context.Context, a backup.Attachment) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", a.Filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", a.Filename, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
