package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBPath    string
	Turso     TursoConfig
	Discord   DiscordConfig
	MaxScore  int
	Backup    BackupConfig
	Dashboard DashboardConfig
	Slack     SlackConfig
	LogLevel  string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type DiscordConfig struct {
	Token             string
	GuildID           string
	CommanderRole     string
	AnnounceChannelID string
	ForumChannelID    string
}

type BackupConfig struct {
	ChannelID  string
	Weekday    int // 0=Monday .. 6=Sunday
	Hour       int
	Minute     int
	Timezone   string
	Passphrase string
	Salt       string // base64url, optional
}

// Enabled reports whether backups are configured.
func (b BackupConfig) Enabled() bool {
	return b.ChannelID != ""
}

// Location resolves the backup timezone, falling back to UTC.
func (b BackupConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type DashboardConfig struct {
	Enabled bool
	Bind    string
	Port    string
	Token   string
}

// Addr is the listen address of the dashboard.
func (d DashboardConfig) Addr() string {
	return d.Bind + ":" + d.Port
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether the Slack mirror is configured.
func (s SlackConfig) Enabled() bool {
	return s.Token != ""
}
