package commands

import (
	"context"
	"time"

	"github.com/mauv0809/tankbot/internal/backup"
)

// MaxReplyLength is where long replies are cut.
const MaxReplyLength = 1800

// Permission is what a member needs to run a command.
type Permission int

const (
	Everyone Permission = iota
	Commander
	Admin
)

// Invocation is a parsed slash command.
type Invocation struct {
	// Name is the full command path, e.g. "highscore submit".
	Name string
	// User is the invoking member's display name, recorded as the actor.
	User      string
	Admin     bool
	Commander bool
	// Options holds option values keyed by name: int64, string or bool.
	Options map[string]any
	// File is the downloaded attachment option, if any.
	File *File
}

// File is a reply attachment or an uploaded attachment option.
type File struct {
	Name string
	Data []byte
}

// Reply is what the platform sends back, always ephemeral.
type Reply struct {
	Content string
	File    *File
	// Followup, when set, runs after Content has been sent; its result is
	// posted as a second message. Used for slow operations.
	Followup func(ctx context.Context) string
}

// Handler runs a single command.
type Handler func(ctx context.Context, inv Invocation) (Reply, error)

type route struct {
	perm    Permission
	handler Handler
}

// Settings are the configuration values shown or enforced by commands.
type Settings struct {
	MaxScore         int
	CommanderRole    string
	BackupChannelID  string
	Schedule         backup.Schedule
	DashboardEnabled bool
	DashboardAddr    string
	StartedAt        time.Time
}
