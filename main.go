package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/mauv0809/tankbot/internal/commands"
	"github.com/mauv0809/tankbot/internal/config"
	"github.com/mauv0809/tankbot/internal/database"
	"github.com/mauv0809/tankbot/internal/discord"
	"github.com/mauv0809/tankbot/internal/forum"
	server "github.com/mauv0809/tankbot/internal/http"
	"github.com/mauv0809/tankbot/internal/metrics"
	"github.com/mauv0809/tankbot/internal/notifier"
	discordnotifier "github.com/mauv0809/tankbot/internal/notifier/discord"
	slacknotifier "github.com/mauv0809/tankbot/internal/notifier/slack"
	"github.com/mauv0809/tankbot/internal/processor"
	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	log.SetLevel(config.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, dbTeardown, err := database.InitDB(cfg.DBPath, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	log.Info("Database initialization time recorded", "duration_ms", time.Since(startTime).Milliseconds())
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tankStore := tank.New(db)
	engine := ranking.New(db)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	counters := metrics.New(db)

	dc, err := discord.NewClient(cfg.Discord.Token, cfg.Discord.GuildID)
	if err != nil {
		log.Fatalf("Failed to create Discord client: %s", err)
	}
	syncer := forum.NewSyncer(dc, tankStore, engine, cfg.Discord.ForumChannelID, metricsSvc, counters)
	if !syncer.Enabled() {
		log.Warn("TANK_INDEX_FORUM_CHANNEL_ID is not set, forum index disabled")
	}

	var fanout notifier.Fanout
	if cfg.Discord.AnnounceChannelID != "" {
		fanout = append(fanout, discordnotifier.NewNotifier(dc, cfg.Discord.AnnounceChannelID))
	}
	if cfg.Slack.Enabled() {
		fanout = append(fanout, slacknotifier.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID))
	}
	var announcer processor.Notifier
	if len(fanout) > 0 {
		announcer = fanout
	} else {
		log.Warn("No announcement channel configured, new records will not be announced")
	}
	proc := processor.New(syncer, engine, announcer, metricsSvc, counters)

	salt, _ := cfg.Backup.SaltBytes()
	pipeline := backup.NewPipeline(db, dc, backup.Options{
		ChannelID:  cfg.Backup.ChannelID,
		Passphrase: cfg.Backup.Passphrase,
		Salt:       salt,
	}, metricsSvc, counters)
	schedule := backup.Schedule{
		Weekday:  cfg.Backup.Weekday,
		Hour:     cfg.Backup.Hour,
		Minute:   cfg.Backup.Minute,
		Location: cfg.Backup.Location(),
	}
	backups := backup.NewService(pipeline, schedule, time.Now)

	router := commands.NewRouter(commands.Deps{
		Tanks:   tankStore,
		Ranking: engine,
		Effects: proc,
		Index:   syncer,
		Backups: backups,
		Settings: commands.Settings{
			MaxScore:         cfg.MaxScore,
			CommanderRole:    cfg.Discord.CommanderRole,
			BackupChannelID:  cfg.Backup.ChannelID,
			Schedule:         schedule,
			DashboardEnabled: cfg.Dashboard.Enabled,
			DashboardAddr:    cfg.Dashboard.Addr(),
			StartedAt:        startTime,
		},
		Ping: db.PingContext,
	})
	bot := discord.NewBot(dc, router, cfg.MaxScore, cfg.Discord.CommanderRole)
	if err := bot.Start(); err != nil {
		log.Fatalf("Failed to start Discord bot: %s", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		backups.RunScheduler(ctx)
	}()

	if cfg.Dashboard.Enabled {
		dashboard := server.NewServer(tankStore, engine, backups, counters, metricsHandler, cfg.Dashboard.Token, startTime)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dashboard.ListenAndServe(ctx, cfg.Dashboard.Addr()); err != nil {
				log.Error("Dashboard error", "error", err)
			}
		}()
	}

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	<-ctx.Done()
	log.Info("Shutdown signal received")

	if err := bot.Stop(); err != nil {
		log.Error("Discord shutdown failed", "error", err)
	}
	proc.Wait()
	wg.Wait()
	log.Info("Bot process shutting down")
}
