package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// ErrMissingSecret is returned when a feature is enabled without the secret it needs.
var ErrMissingSecret = errors.New("missing required secret")

// Load reads configuration from environment variables and .env file.
// Missing or malformed variables are fatal.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	return cfg
}

// FromEnv builds a Config from the process environment.
func FromEnv() (Config, error) {
	var errs []error

	// A helper function to get a required env var.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			return value
		}
		errs = append(errs, fmt.Errorf("required environment variable %s is not set", key))
		return ""
	}
	getEnvDefault := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return fallback
	}
	getInt := func(key string, fallback int) int {
		raw := getEnvDefault(key, "")
		if raw == "" {
			return fallback
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be an integer, got %q", key, raw))
			return fallback
		}
		return v
	}
	getBool := func(key string) bool {
		raw := getEnvDefault(key, "")
		if raw == "" {
			return false
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be a boolean, got %q", key, raw))
		}
		return v
	}

	cfg := Config{
		DBPath: getEnvDefault("DB_PATH", "highscores.db"),
		Turso: TursoConfig{
			PrimaryURL: getEnvDefault("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvDefault("TURSO_AUTH_TOKEN", ""),
		},
		Discord: DiscordConfig{
			Token:             getEnv("DISCORD_TOKEN"),
			GuildID:           getEnvDefault("GUILD_ID", ""),
			CommanderRole:     getEnvDefault("COMMANDER_ROLE_NAME", "Clan Commander"),
			AnnounceChannelID: getEnvDefault("ANNOUNCE_CHANNEL_ID", ""),
			ForumChannelID:    getEnvDefault("TANK_INDEX_FORUM_CHANNEL_ID", ""),
		},
		MaxScore: getInt("MAX_SCORE", 100000),
		Backup: BackupConfig{
			ChannelID:  getEnvDefault("BACKUP_CHANNEL_ID", ""),
			Weekday:    getInt("BACKUP_WEEKDAY", 6),
			Hour:       getInt("BACKUP_HOUR", 3),
			Minute:     getInt("BACKUP_MINUTE", 0),
			Timezone:   getEnvDefault("BACKUP_TZ", "Europe/Helsinki"),
			Passphrase: os.Getenv("BACKUP_ENCRYPTION_PASSPHRASE"),
			Salt:       getEnvDefault("BACKUP_ENCRYPTION_SALT", ""),
		},
		Dashboard: DashboardConfig{
			Enabled: getBool("DASHBOARD_ENABLED"),
			Bind:    getEnvDefault("DASHBOARD_BIND", "127.0.0.1"),
			Port:    getEnvDefault("DASHBOARD_PORT", "8080"),
			Token:   getEnvDefault("DASHBOARD_TOKEN", ""),
		},
		Slack: SlackConfig{
			Token:     getEnvDefault("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnvDefault("SLACK_CHANNEL_ID", ""),
		},
		LogLevel: getEnvDefault("LOG_LEVEL", "info"),
	}
	return cfg, errors.Join(errs...)
}

// Validate checks that every enabled feature has what it needs to run safely.
func (c Config) Validate() error {
	var errs []error
	if c.MaxScore < 1 {
		errs = append(errs, fmt.Errorf("MAX_SCORE must be at least 1, got %d", c.MaxScore))
	}

	if c.Dashboard.Enabled && c.Dashboard.Token == "" {
		errs = append(errs, fmt.Errorf("%w: DASHBOARD_TOKEN must be set when DASHBOARD_ENABLED is true", ErrMissingSecret))
	}
	if c.Dashboard.Enabled {
		if p, err := strconv.Atoi(c.Dashboard.Port); err != nil || p < 1 || p > 65535 {
			errs = append(errs, fmt.Errorf("DASHBOARD_PORT must be a port number, got %q", c.Dashboard.Port))
		}
	}

	if c.Slack.Enabled() && c.Slack.ChannelID == "" {
		errs = append(errs, errors.New("SLACK_CHANNEL_ID must be set when SLACK_BOT_TOKEN is set"))
	}

	if c.Backup.Enabled() {
		if c.Turso.PrimaryURL != "" {
			errs = append(errs, errors.New("backups need a local database file; unset BACKUP_CHANNEL_ID or TURSO_PRIMARY_URL"))
		}
		if c.Backup.Weekday < 0 || c.Backup.Weekday > 6 {
			errs = append(errs, fmt.Errorf("BACKUP_WEEKDAY must be 0..6 (Monday..Sunday), got %d", c.Backup.Weekday))
		}
		if c.Backup.Hour < 0 || c.Backup.Hour > 23 {
			errs = append(errs, fmt.Errorf("BACKUP_HOUR must be 0..23, got %d", c.Backup.Hour))
		}
		if c.Backup.Minute < 0 || c.Backup.Minute > 59 {
			errs = append(errs, fmt.Errorf("BACKUP_MINUTE must be 0..59, got %d", c.Backup.Minute))
		}
		if _, err := time.LoadLocation(c.Backup.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("BACKUP_TZ: %w", err))
		}
	}
	if c.Backup.Salt != "" {
		if _, err := c.Backup.SaltBytes(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaltBytes decodes the configured salt. It returns nil when none is set.
func (b BackupConfig) SaltBytes() ([]byte, error) {
	if b.Salt == "" {
		return nil, nil
	}
	salt, err := base64.URLEncoding.DecodeString(b.Salt)
	if err != nil {
		salt, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(b.Salt, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("BACKUP_ENCRYPTION_SALT is not valid base64url: %w", err)
	}
	if len(salt) != 16 {
		return nil, fmt.Errorf("BACKUP_ENCRYPTION_SALT must decode to 16 bytes, got %d", len(salt))
	}
	return salt, nil
}

// ParseLevel maps LOG_LEVEL onto a log level, defaulting to info.
func ParseLevel(s string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return log.InfoLevel
	}
	return level
}
