package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/tank"
)

// Router dispatches invocations to their handlers after checking permissions.
type Router struct {
	tanks    tank.Store
	ranking  Ranker
	effects  SideEffects
	index    Indexer
	backups  Backups
	settings Settings
	now      func() time.Time
	health   func(ctx context.Context) error
	routes   map[string]route
}

// Deps are the collaborators the commands need. Index and Backups are always
// set; they report themselves disabled when not configured.
type Deps struct {
	Tanks    tank.Store
	Ranking  Ranker
	Effects  SideEffects
	Index    Indexer
	Backups  Backups
	Settings Settings
	// Ping checks the database for /system health.
	Ping func(ctx context.Context) error
	Now  func() time.Time
}

// NewRouter registers every command.
func NewRouter(d Deps) *Router {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Settings.CommanderRole == "" {
		d.Settings.CommanderRole = "Clan Commander"
	}
	r := &Router{
		tanks:    d.Tanks,
		ranking:  d.Ranking,
		effects:  d.Effects,
		index:    d.Index,
		backups:  d.Backups,
		settings: d.Settings,
		now:      d.Now,
		health:   d.Ping,
	}
	r.routes = map[string]route{
		"help": {Everyone, r.help},

		"highscore submit":  {Commander, r.submit},
		"highscore show":    {Everyone, r.show},
		"highscore qualify": {Everyone, r.qualify},
		"highscore history": {Everyone, r.history},

		"tank add":                   {Admin, r.addTank},
		"tank edit":                  {Admin, r.editTank},
		"tank remove":                {Admin, r.removeTank},
		"tank list":                  {Admin, r.listTanks},
		"tank changes":               {Admin, r.changes},
		"tank export_csv":            {Admin, r.exportCSV},
		"tank preview_import":        {Admin, r.previewImport},
		"tank import_csv":            {Admin, r.importCSV},
		"tank rebuild_index":         {Admin, r.rebuildIndex},
		"tank rebuild_index_missing": {Admin, r.rebuildIndexMissing},

		"backup run_now": {Admin, r.backupNow},
		"backup status":  {Admin, r.backupStatus},
		"backup verify":  {Admin, r.backupVerify},

		"system health": {Admin, r.systemHealth},
	}
	return r
}

// Names lists the registered command paths, sorted.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle runs the invocation and turns every outcome into a reply.
func (r *Router) Handle(ctx context.Context, inv Invocation) Reply {
	rt, ok := r.routes[inv.Name]
	if !ok {
		log.Warn("Unknown command", "command", inv.Name, "user", inv.User)
		return Reply{Content: "Unknown command."}
	}
	if msg := r.deny(rt.perm, inv); msg != "" {
		log.Info("Command denied", "command", inv.Name, "user", inv.User)
		return Reply{Content: msg}
	}

	log.Debug("Handling command", "command", inv.Name, "user", inv.User)
	reply, err := rt.handler(ctx, inv)
	if err != nil {
		return Reply{Content: r.errorMessage(inv, err)}
	}
	reply.Content = Truncate(reply.Content)
	return reply
}

func (r *Router) deny(perm Permission, inv Invocation) string {
	switch perm {
	case Commander:
		if !inv.Commander {
			return fmt.Sprintf("Nope. Only members with the **%s** role can submit.", r.settings.CommanderRole)
		}
	case Admin:
		if !inv.Admin {
			return "Nope. You need **Manage Server**."
		}
	}
	return ""
}

func (r *Router) errorMessage(inv Invocation, err error) string {
	var verr *tank.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, tank.ErrTankNotFound):
		return "Tank not found."
	case errors.Is(err, tank.ErrTankExists):
		return "Tank already exists."
	case errors.Is(err, tank.ErrTankHasSubmissions):
		return "❌ Tank has submissions and cannot be removed."
	}
	log.Error("Command failed", "command", inv.Name, "user", inv.User, "error", err)
	return "❌ Something went wrong. Try again later."
}

// Truncate cuts s to MaxReplyLength characters and marks the cut.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxReplyLength {
		return s
	}
	return string(runes[:MaxReplyLength]) + "\n…(truncated)"
}

// stamp renders a stored timestamp the way replies show them.
func stamp(t time.Time) string {
	return tank.FormatTime(t)
}

func joinLimited(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + "…"
}
