package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/tankbot/internal/database"
	"github.com/mauv0809/tankbot/internal/tank"
	"gopkg.in/yaml.v3"
)

const seederActor = "seeder"

type rosterFile struct {
	Tanks []rosterEntry `yaml:"tanks"`
}

type rosterEntry struct {
	Name string `yaml:"name"`
	Tier int    `yaml:"tier"`
	Type string `yaml:"type"`
}

// parseRoster reads a YAML roster and validates every entry.
func parseRoster(r io.Reader) ([]tank.Spec, error) {
	var file rosterFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	specs := make([]tank.Spec, 0, len(file.Tanks))
	for i, entry := range file.Tanks {
		spec, err := tank.ValidateSpec(tank.Spec{Name: entry.Name, Tier: entry.Tier, Type: tank.Type(entry.Type)})
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i+1, entry.Name, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// seed adds each tank, skipping the ones already in the roster.
func seed(ctx context.Context, store tank.Store, specs []tank.Spec) (added, skipped int, err error) {
	for _, spec := range specs {
		if _, err := store.AddTank(ctx, spec, seederActor); err != nil {
			if errors.Is(err, tank.ErrTankExists) {
				skipped++
				continue
			}
			return added, skipped, fmt.Errorf("failed to add %s: %w", spec.Name, err)
		}
		added++
	}
	return added, skipped, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	rosterPath := flag.String("roster", "roster.yaml", "YAML file with the tanks to seed")
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "tankbot.db"
	}

	log.Info("Starting roster seeder...", "roster", *rosterPath, "db", dbPath)

	f, err := os.Open(*rosterPath)
	if err != nil {
		log.Fatalf("Failed to open roster: %s", err)
	}
	defer f.Close()

	specs, err := parseRoster(f)
	if err != nil {
		log.Fatalf("Invalid roster: %s", err)
	}

	db, teardown, err := database.InitDB(dbPath, os.Getenv("TURSO_PRIMARY_URL"), os.Getenv("TURSO_AUTH_TOKEN"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	added, skipped, err := seed(context.Background(), tank.New(db), specs)
	if err != nil {
		log.Error("Seeding stopped", "error", err, "added", added, "skipped", skipped)
		return
	}
	log.Info("Seeding complete", "added", added, "skipped", skipped)
}
