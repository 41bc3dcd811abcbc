package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/mauv0809/tankbot/internal/tank"
)

func floatPtr(v float64) *float64 { return &v }

func intOption(name, desc string, required bool, min, max float64) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: desc,
		Required:    required,
		MinValue:    floatPtr(min),
		MaxValue:    max,
	}
}

func stringOption(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: desc,
		Required:    required,
	}
}

func typeOption(required bool) *discordgo.ApplicationCommandOption {
	o := stringOption("type", "Tank type", required)
	for _, t := range tank.Types {
		o.Choices = append(o.Choices, &discordgo.ApplicationCommandOptionChoice{Name: t.Label(), Value: string(t)})
	}
	return o
}

func tierOption(required bool) *discordgo.ApplicationCommandOption {
	return intOption("tier", "Tier (1..10)", required, tank.MinTier, tank.MaxTier)
}

func csvOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionAttachment, Name: "csv_file", Description: "CSV with name,tier,type columns", Required: true},
		{Type: discordgo.ApplicationCommandOptionBoolean, Name: "delete_missing", Description: "Remove tanks missing from the file"},
	}
}

func sub(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: desc,
		Options:     opts,
	}
}

// Commands returns the slash command definitions registered with Discord.
func Commands(maxScore int) []*discordgo.ApplicationCommand {
	score := func(desc string) *discordgo.ApplicationCommandOption {
		return intOption("score", desc, true, 1, float64(maxScore))
	}
	return []*discordgo.ApplicationCommand{
		{
			Name:        "help",
			Description: "Show commands you can use",
		},
		{
			Name:        "highscore",
			Description: "Highscore commands",
			Options: []*discordgo.ApplicationCommandOption{
				sub("submit", "Submit a new highscore (commanders only)",
					stringOption("player", "Player name", true),
					stringOption("tank", "Tank name", true),
					score("Score")),
				sub("show", "Show current champion (filters optional)", tierOption(false), typeOption(false)),
				sub("qualify", "Check if a score would qualify as a new tank record (no submission)",
					stringOption("tank", "Tank name", true),
					score("Score to compare"),
					stringOption("player", "Player name (optional)", false)),
				sub("history", "Show recent submissions (grouped) + stats",
					intOption("limit", "How many recent entries (1-25)", false, 1, 25)),
			},
		},
		{
			Name:        "tank",
			Description: "Tank roster admin commands (admins only)",
			Options: []*discordgo.ApplicationCommandOption{
				sub("add", "Add a tank", stringOption("name", "Tank name", true), tierOption(true), typeOption(true)),
				sub("edit", "Edit a tank", stringOption("name", "Tank name", true), tierOption(true), typeOption(true)),
				sub("remove", "Remove a tank (only if no submissions)", stringOption("name", "Tank name", true)),
				sub("list", "List tanks (filters optional)", tierOption(false), typeOption(false)),
				sub("changes", "Show tank change log", intOption("limit", "How many entries (1-50)", false, 1, 50)),
				sub("export_csv", "Export tank roster as CSV"),
				sub("preview_import", "Preview CSV import (no changes)", csvOptions()...),
				sub("import_csv", "Import tank roster from CSV (applies changes)", csvOptions()...),
				sub("rebuild_index", "Rebuild ALL forum index threads"),
				sub("rebuild_index_missing", "Create/repair missing forum index threads"),
			},
		},
		{
			Name:        "backup",
			Description: "Database backups (admins only)",
			Options: []*discordgo.ApplicationCommandOption{
				sub("run_now", "Run a DB backup now"),
				sub("status", "Show backup schedule status"),
				sub("verify", "Verify the latest backup file in the backup channel",
					intOption("scan_limit", "How many recent messages to scan (10-200)", false, 10, 200)),
			},
		},
		{
			Name:        "system",
			Description: "System commands (admins only)",
			Options: []*discordgo.ApplicationCommandOption{
				sub("health", "Show system health"),
			},
		},
	}
}
