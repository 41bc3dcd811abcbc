package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/mauv0809/tankbot/internal/forum"
)

// Forum resolves a forum channel and its tags.
func (c *Client) Forum(ctx context.Context, forumID string) (forum.Forum, error) {
	ch, err := c.session.Channel(forumID, discordgo.WithContext(ctx))
	if err != nil {
		return forum.Forum{}, err
	}
	if ch.Type != discordgo.ChannelTypeGuildForum {
		return forum.Forum{}, fmt.Errorf("channel %s is not a forum", forumID)
	}
	return toForum(ch), nil
}

// EnsureTags adds the named tags the forum does not offer yet.
func (c *Client) EnsureTags(ctx context.Context, forumID string, names []string) (forum.Forum, error) {
	ch, err := c.session.Channel(forumID, discordgo.WithContext(ctx))
	if err != nil {
		return forum.Forum{}, err
	}
	tags, changed := mergeTags(ch.AvailableTags, names)
	if !changed {
		return toForum(ch), nil
	}
	ch, err = c.session.ChannelEditComplex(forumID, &discordgo.ChannelEdit{AvailableTags: &tags}, discordgo.WithContext(ctx))
	if err != nil {
		return forum.Forum{}, fmt.Errorf("failed to create forum tags: %w", err)
	}
	return toForum(ch), nil
}

// CreateThread starts a forum post whose starter message holds content.
func (c *Client) CreateThread(ctx context.Context, forumID, title, content string, tagIDs []string) (forum.Thread, error) {
	ch, err := c.session.ForumThreadStartComplex(forumID, &discordgo.ThreadStart{
		Name:                title,
		AutoArchiveDuration: threadArchiveMinutes,
		AppliedTags:         tagIDs,
	}, &discordgo.MessageSend{Content: content}, discordgo.WithContext(ctx))
	if err != nil {
		return forum.Thread{}, err
	}
	return toThread(ch), nil
}

// Thread fetches a thread by id.
func (c *Client) Thread(ctx context.Context, threadID string) (forum.Thread, error) {
	ch, err := c.session.Channel(threadID, discordgo.WithContext(ctx))
	if err != nil {
		return forum.Thread{}, err
	}
	if !ch.IsThread() {
		return forum.Thread{}, fmt.Errorf("channel %s is not a thread", threadID)
	}
	return toThread(ch), nil
}

// EditThread sets the title and applied tags.
func (c *Client) EditThread(ctx context.Context, threadID, title string, tagIDs []string) error {
	_, err := c.session.ChannelEditComplex(threadID, &discordgo.ChannelEdit{
		Name:        title,
		AppliedTags: &tagIDs,
	}, discordgo.WithContext(ctx))
	return err
}

// EditStarter replaces the content of the thread's starter message.
func (c *Client) EditStarter(ctx context.Context, threadID, content string) error {
	_, err := c.session.ChannelMessageEdit(threadID, threadID, content, discordgo.WithContext(ctx))
	return err
}

// PinStarter pins the thread's starter message.
func (c *Client) PinStarter(ctx context.Context, threadID string) error {
	return c.session.ChannelMessagePin(threadID, threadID, discordgo.WithContext(ctx))
}

// SetLocked locks or unlocks a thread.
func (c *Client) SetLocked(ctx context.Context, threadID string, locked bool) error {
	_, err := c.session.ChannelEditComplex(threadID, &discordgo.ChannelEdit{Locked: &locked}, discordgo.WithContext(ctx))
	return err
}

func toForum(ch *discordgo.Channel) forum.Forum {
	f := forum.Forum{ID: ch.ID}
	for _, t := range ch.AvailableTags {
		f.Tags = append(f.Tags, forum.Tag{ID: t.ID, Name: t.Name})
	}
	return f
}

func toThread(ch *discordgo.Channel) forum.Thread {
	return forum.Thread{ID: ch.ID, ForumID: ch.ParentID, Name: ch.Name}
}

// mergeTags appends the names missing from existing. Existing tags keep their ids.
func mergeTags(existing []discordgo.ForumTag, names []string) ([]discordgo.ForumTag, bool) {
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.Name] = true
	}
	out := append([]discordgo.ForumTag(nil), existing...)
	changed := false
	for _, name := range names {
		if have[name] {
			continue
		}
		have[name] = true
		out = append(out, discordgo.ForumTag{Name: name})
		changed = true
	}
	return out, changed
}
