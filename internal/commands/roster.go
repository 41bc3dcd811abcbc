package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/tank"
)

const (
	defaultChangesLimit = 20
	maxListed           = 200
	maxPreviewNames     = 30
)

func specFrom(inv Invocation) tank.Spec {
	name, _ := inv.String("name")
	tier, _ := inv.Int("tier")
	typ, _ := inv.String("type")
	return tank.Spec{Name: name, Tier: tier, Type: tank.Type(typ)}
}

func (r *Router) addTank(ctx context.Context, inv Invocation) (Reply, error) {
	t, err := r.tanks.AddTank(ctx, specFrom(inv), inv.User)
	if err != nil {
		return Reply{}, err
	}
	r.effects.AfterRosterChange(t.Bucket())
	return Reply{Content: fmt.Sprintf("✅ Added **%s** (Tier %d, %s).", t.Name, t.Tier, t.Type.Label())}, nil
}

func (r *Router) editTank(ctx context.Context, inv Invocation) (Reply, error) {
	old, updated, err := r.tanks.EditTank(ctx, specFrom(inv), inv.User)
	if err != nil {
		return Reply{}, err
	}
	r.effects.AfterRosterChange(old.Bucket(), updated.Bucket())
	return Reply{Content: fmt.Sprintf("✅ Updated **%s**.", updated.Name)}, nil
}

func (r *Router) removeTank(ctx context.Context, inv Invocation) (Reply, error) {
	name, _ := inv.String("name")
	t, err := r.tanks.RemoveTank(ctx, name, inv.User)
	if err != nil {
		return Reply{}, err
	}
	r.effects.AfterRosterChange(t.Bucket())
	return Reply{Content: fmt.Sprintf("✅ Removed **%s**.", t.Name)}, nil
}

func (r *Router) listTanks(ctx context.Context, inv Invocation) (Reply, error) {
	filter, err := filterFrom(inv)
	if err != nil {
		return Reply{}, err
	}
	tanks, err := r.tanks.ListTanks(ctx, filter)
	if err != nil {
		return Reply{}, err
	}
	if len(tanks) == 0 {
		return Reply{Content: "No tanks found."}, nil
	}
	if len(tanks) > maxListed {
		tanks = tanks[:maxListed]
	}
	lines := []string{"**Tanks**"}
	for _, t := range tanks {
		lines = append(lines, fmt.Sprintf("- **%s** — Tier %d, %s", t.Name, t.Tier, t.Type.Label()))
	}
	return Reply{Content: strings.Join(lines, "\n")}, nil
}

func (r *Router) changes(ctx context.Context, inv Invocation) (Reply, error) {
	changes, err := r.tanks.Changes(ctx, inv.IntOr("limit", defaultChangesLimit))
	if err != nil {
		return Reply{}, err
	}
	if len(changes) == 0 {
		return Reply{Content: "No changes logged."}, nil
	}
	lines := []string{"**Tank changes**"}
	for _, c := range changes {
		lines = append(lines, fmt.Sprintf("- #%d **%s** `%s` by **%s** • %s", c.ID, c.Action, c.Details, c.Actor, stamp(c.CreatedAt)))
	}
	return Reply{Content: strings.Join(lines, "\n")}, nil
}

func (r *Router) exportCSV(ctx context.Context, _ Invocation) (Reply, error) {
	var buf bytes.Buffer
	if err := tank.ExportCSV(ctx, r.tanks, &buf); err != nil {
		return Reply{}, err
	}
	return Reply{Content: "CSV export:", File: &File{Name: "tanks.csv", Data: buf.Bytes()}}, nil
}

func (r *Router) planImport(ctx context.Context, inv Invocation) (tank.ImportPlan, bool, error) {
	if inv.File == nil {
		return tank.ImportPlan{}, false, nil
	}
	incoming, err := tank.ParseRosterCSV(bytes.NewReader(inv.File.Data))
	if err != nil {
		return tank.ImportPlan{}, false, err
	}
	existing, err := r.tanks.ListTanks(ctx, tank.Filter{})
	if err != nil {
		return tank.ImportPlan{}, false, err
	}
	return tank.PlanImport(existing, incoming, inv.Bool("delete_missing")), true, nil
}

func (r *Router) previewImport(ctx context.Context, inv Invocation) (Reply, error) {
	plan, ok, err := r.planImport(ctx, inv)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Content: "Attach a CSV file with name,tier,type columns."}, nil
	}
	return Reply{Content: PreviewText(plan, inv.Bool("delete_missing"))}, nil
}

// PreviewText summarises an import plan without applying it.
func PreviewText(plan tank.ImportPlan, deleteMissing bool) string {
	lines := []string{
		"**Preview import**",
		fmt.Sprintf("- Adds: %d", len(plan.Adds)),
		fmt.Sprintf("- Edits: %d", len(plan.Edits)),
		fmt.Sprintf("- Removes: %d (delete_missing=%t)", len(plan.Removes), deleteMissing),
	}
	names := func(specs []tank.Spec) []string {
		out := make([]string, len(specs))
		for i, s := range specs {
			out[i] = s.Name
		}
		return out
	}
	if len(plan.Adds) > 0 {
		lines = append(lines, "\n**Adds**: "+joinLimited(names(plan.Adds), maxPreviewNames))
	}
	if len(plan.Edits) > 0 {
		lines = append(lines, "\n**Edits**: "+joinLimited(names(plan.Edits), maxPreviewNames))
	}
	if len(plan.Removes) > 0 {
		lines = append(lines, "\n**Removes**: "+joinLimited(plan.Removes, maxPreviewNames))
	}
	return strings.Join(lines, "\n")
}

func (r *Router) importCSV(ctx context.Context, inv Invocation) (Reply, error) {
	plan, ok, err := r.planImport(ctx, inv)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Content: "Attach a CSV file with name,tier,type columns."}, nil
	}
	res, err := tank.ApplyImport(ctx, r.tanks, plan, inv.User)
	// Partial imports still refresh what they touched.
	r.effects.AfterRosterChange(res.Affected...)
	if err != nil {
		return Reply{}, err
	}

	msg := fmt.Sprintf("✅ Import applied. Adds=%d Edits=%d Removes=%d.", res.Added, res.Edited, res.Removed)
	if len(res.Skipped) > 0 {
		msg += fmt.Sprintf("\nSkipped (has submissions): %s", joinLimited(res.Skipped, maxPreviewNames))
	}
	return Reply{Content: msg}, nil
}

func (r *Router) rebuildIndex(_ context.Context, _ Invocation) (Reply, error) {
	if !r.index.Enabled() {
		return Reply{Content: "Forum index is not configured (TANK_INDEX_FORUM_CHANNEL_ID)."}, nil
	}
	return Reply{
		Content: "Rebuilding index…",
		Followup: func(ctx context.Context) string {
			if err := r.index.RebuildAll(ctx); err != nil {
				log.Error("Index rebuild finished with errors", "error", err)
				return fmt.Sprintf("❌ Index rebuilt with errors: `%v`", err)
			}
			return "✅ Index rebuilt."
		},
	}, nil
}

func (r *Router) rebuildIndexMissing(_ context.Context, _ Invocation) (Reply, error) {
	if !r.index.Enabled() {
		return Reply{Content: "Forum index is not configured (TANK_INDEX_FORUM_CHANNEL_ID)."}, nil
	}
	return Reply{
		Content: "Repairing missing index threads…",
		Followup: func(ctx context.Context) string {
			created, err := r.index.RebuildMissing(ctx)
			if err != nil {
				log.Error("Index repair finished with errors", "error", err, "created", created)
				return fmt.Sprintf("❌ Repaired %d thread(s) with errors: `%v`", created, err)
			}
			return fmt.Sprintf("✅ Missing threads repaired (%d created).", created)
		},
	}, nil
}
