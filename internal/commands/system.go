package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/tank"
)

func (r *Router) systemHealth(ctx context.Context, _ Invocation) (Reply, error) {
	var dbErr error
	if r.health != nil {
		dbErr = r.health(ctx)
	}
	var counts tank.Counts
	if dbErr == nil {
		counts, dbErr = r.tanks.Counts(ctx)
	}
	if dbErr != nil {
		log.Error("Health check failed", "error", dbErr)
	}

	st := r.backups.LastBackupStatus()
	lines := []string{
		"**System health**",
		fmt.Sprintf("- Uptime: `%s`", FormatUptime(r.now().Sub(r.settings.StartedAt))),
	}
	if dbErr != nil {
		lines = append(lines, "- DB: `FAIL`", fmt.Sprintf("- DB error: `%v`", dbErr))
	} else {
		lines = append(lines, "- DB: `OK`")
	}
	lines = append(lines,
		fmt.Sprintf("- Tanks: `%d` | Submissions: `%d` | Index mappings: `%d`", counts.Tanks, counts.Submissions, counts.Mappings),
		fmt.Sprintf("- Backups enabled: `%t`", st.Enabled),
		"- Last backup: "+lastBackup(st),
	)
	if st.Enabled {
		lines = append(lines, fmt.Sprintf("- Next backup: `%s` (%s)", st.NextRun.Format(time.RFC3339), st.Location))
	}
	lines = append(lines, fmt.Sprintf("- Dashboard: `%t` on `%s`", r.settings.DashboardEnabled, r.settings.DashboardAddr))
	return Reply{Content: strings.Join(lines, "\n")}, nil
}

// FormatUptime renders d as "1d 02h 03m 04s", dropping the day part when zero.
func FormatUptime(d time.Duration) string {
	s := int(d.Seconds())
	if s < 0 {
		s = 0
	}
	days, s := s/86400, s%86400
	h, s := s/3600, s%3600
	m, s := s/60, s%60
	if days > 0 {
		return fmt.Sprintf("%dd %02dh %02dm %02ds", days, h, m, s)
	}
	return fmt.Sprintf("%02dh %02dm %02ds", h, m, s)
}

func (r *Router) help(_ context.Context, inv Invocation) (Reply, error) {
	lines := []string{
		"**Tank Highscore Bot — Help**",
		"",
		"**Public commands:**",
		"- `/highscore show` — show current champion",
		"- `/highscore history` — recent results + stats",
		"- `/highscore qualify` — check if a score would qualify",
		"",
	}
	if inv.Commander {
		lines = append(lines,
			"**Commander commands:**",
			"- `/highscore submit` — submit a new score",
			"")
	}
	if inv.Admin {
		lines = append(lines,
			"**Admin commands:**",
			"- `/tank …` — manage tank roster",
			"- `/backup …` — backups and status",
			"- `/system health` — system health",
			"")
	}
	lines = append(lines, "_Commands shown depend on your permissions._")
	return Reply{Content: strings.Join(lines, "\n")}, nil
}
