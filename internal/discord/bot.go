package discord

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/mauv0809/tankbot/internal/commands"
)

const (
	commandTimeout  = 2 * time.Minute
	followupTimeout = 10 * time.Minute
)

// Router turns an invocation into a reply.
type Router interface {
	Handle(ctx context.Context, inv commands.Invocation) commands.Reply
}

// Bot connects slash command interactions to the command router.
type Bot struct {
	client        *Client
	router        Router
	maxScore      int
	commanderRole string

	mu            sync.Mutex
	stopped       bool
	wg            sync.WaitGroup
	removeHandler func()
}

// NewBot creates a Bot. Call Start to connect and register commands.
func NewBot(client *Client, router Router, maxScore int, commanderRole string) *Bot {
	return &Bot{
		client:        client,
		router:        router,
		maxScore:      maxScore,
		commanderRole: commanderRole,
	}
}

// Start opens the gateway and registers the slash commands, guild scoped
// when a guild id is configured.
func (b *Bot) Start() error {
	s := b.client.session
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("Logged in to Discord", "user", r.User.Username, "id", r.User.ID)
	})
	b.removeHandler = s.AddHandler(b.onInteraction)

	if err := b.client.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	registered, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, b.client.guildID, Commands(b.maxScore))
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	log.Info("Slash commands registered", "count", len(registered), "guild", b.client.guildID)
	return nil
}

// Stop detaches the interaction handler, closes the gateway and waits for
// running followups. Followups go over REST and finish after the close.
func (b *Bot) Stop() error {
	if b.removeHandler != nil {
		b.removeHandler()
	}
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	err := b.client.Close()
	b.wg.Wait()
	return err
}

// goTracked runs fn in a goroutine that Stop waits for. It returns false
// without running fn once Stop has been called.
func (b *Bot) goTracked(fn func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return false
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
	return true
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	data := i.ApplicationCommandData()
	name, opts := commandPath(data)
	inv := commands.Invocation{Name: name, Options: optionValues(opts)}
	b.identify(ctx, i, &inv)

	att, hasFile := attachmentOption(opts, data.Resolved)
	if hasFile {
		// Downloads can outlast the three second response window.
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		}); err != nil {
			log.Error("Failed to defer interaction", "error", err, "command", name)
			return
		}
		blob, err := b.client.Download(ctx, att)
		if err != nil {
			log.Error("Failed to download attachment", "error", err, "file", att.Filename)
			msg := "❌ Could not read the attached file."
			b.editResponse(i.Interaction, commands.Reply{Content: msg})
			return
		}
		inv.File = &commands.File{Name: att.Filename, Data: blob}
	}

	log.Info("Slash command received", "command", name, "user", inv.User, "guild", i.GuildID)
	reply := b.router.Handle(ctx, inv)
	if hasFile {
		b.editResponse(i.Interaction, reply)
	} else if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply.Content,
			Flags:   discordgo.MessageFlagsEphemeral,
			Files:   files(reply.File),
		},
	}); err != nil {
		log.Error("Failed to respond to interaction", "error", err, "command", name)
		return
	}

	if reply.Followup != nil {
		b.followup(i.Interaction, name, reply.Followup)
	}
}

func (b *Bot) editResponse(in *discordgo.Interaction, reply commands.Reply) {
	content := reply.Content
	if _, err := b.client.session.InteractionResponseEdit(in, &discordgo.WebhookEdit{
		Content: &content,
		Files:   files(reply.File),
	}); err != nil {
		log.Error("Failed to edit interaction response", "error", err)
	}
}

func (b *Bot) followup(in *discordgo.Interaction, name string, run func(ctx context.Context) string) {
	started := b.goTracked(func() {
		ctx, cancel := context.WithTimeout(context.Background(), followupTimeout)
		defer cancel()
		content := commands.Truncate(run(ctx))
		if _, err := b.client.session.FollowupMessageCreate(in, true, &discordgo.WebhookParams{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		}); err != nil {
			log.Error("Failed to send followup", "error", err, "command", name)
		}
	})
	if !started {
		log.Warn("Dropped followup during shutdown", "command", name)
	}
}

// identify fills in the member's display name and permissions.
func (b *Bot) identify(ctx context.Context, i *discordgo.InteractionCreate, inv *commands.Invocation) {
	if i.Member == nil {
		if i.User != nil {
			inv.User = displayName("", i.User)
		}
		return
	}
	inv.User = displayName(i.Member.Nick, i.Member.User)
	inv.Admin = isAdmin(i.Member.Permissions)
	if len(i.Member.Roles) == 0 {
		return
	}
	roles, err := b.client.session.GuildRoles(i.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		log.Warn("Failed to load guild roles", "error", err, "guild", i.GuildID)
		return
	}
	inv.Commander = hasRole(i.Member.Roles, roles, b.commanderRole)
}

func displayName(nick string, u *discordgo.User) string {
	switch {
	case nick != "":
		return nick
	case u == nil:
		return "unknown"
	case u.GlobalName != "":
		return u.GlobalName
	}
	return u.Username
}

func isAdmin(perms int64) bool {
	return perms&(discordgo.PermissionAdministrator|discordgo.PermissionManageServer) != 0
}

func hasRole(memberRoles []string, guildRoles []*discordgo.Role, name string) bool {
	ids := make(map[string]bool, len(memberRoles))
	for _, id := range memberRoles {
		ids[id] = true
	}
	for _, r := range guildRoles {
		if r.Name == name && ids[r.ID] {
			return true
		}
	}
	return false
}

// commandPath flattens subcommands into "group sub" and returns the leaf options.
func commandPath(data discordgo.ApplicationCommandInteractionData) (string, []*discordgo.ApplicationCommandInteractionDataOption) {
	name := data.Name
	opts := data.Options
	for len(opts) == 1 && (opts[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
		opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		name += " " + opts[0].Name
		opts = opts[0].Options
	}
	return name, opts
}

func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]any {
	values := make(map[string]any, len(opts))
	for _, o := range opts {
		switch o.Type {
		case discordgo.ApplicationCommandOptionInteger:
			values[o.Name] = o.IntValue()
		case discordgo.ApplicationCommandOptionString:
			values[o.Name] = o.StringValue()
		case discordgo.ApplicationCommandOptionBoolean:
			values[o.Name] = o.BoolValue()
		}
	}
	return values
}

func attachmentOption(opts []*discordgo.ApplicationCommandInteractionDataOption, resolved *discordgo.ApplicationCommandInteractionDataResolved) (backup.Attachment, bool) {
	for _, o := range opts {
		if o.Type != discordgo.ApplicationCommandOptionAttachment || resolved == nil {
			continue
		}
		id, _ := o.Value.(string)
		if a, ok := resolved.Attachments[id]; ok {
			return backup.Attachment{Filename: a.Filename, URL: a.URL}, true
		}
	}
	return backup.Attachment{}, false
}

func files(f *commands.File) []*discordgo.File {
	if f == nil {
		return nil
	}
	return []*discordgo.File{{Name: f.Name, ContentType: "text/csv", Reader: bytes.NewReader(f.Data)}}
}
