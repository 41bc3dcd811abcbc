package forum

import (
	"fmt"
	"strings"

	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

// MaxContentLength is the longest message the chat platform accepts.
const MaxContentLength = 2000

// Render formats the standings of a bucket as the starter message of its thread.
func Render(st ranking.Standings) string {
	header := fmt.Sprintf("**Leaderboard — Tier %d / %s**", st.Bucket.Tier, st.Bucket.Type.Label())
	if st.IsEmpty() {
		return header + "\n\n_No tanks registered in this bucket._"
	}

	var head []string
	head = append(head, header, "")
	if top := st.Top(); top != nil {
		head = append(head,
			fmt.Sprintf("🏆 **TOP:** **%d** — **%s** (%s) • #%d • %s",
				top.Score, top.Player, top.TankName, top.SubmissionID, tank.FormatTime(top.CreatedAt)),
			"")
	}
	head = append(head, "**Records by tank**")

	var rows []string
	for _, e := range st.Scored {
		rows = append(rows, fmt.Sprintf("- **%s**: **%d** — %s • #%d • %s",
			e.Tank.Name, e.Best.Score, e.Best.Player, e.Best.SubmissionID, tank.FormatTime(e.Best.CreatedAt)))
	}
	for _, e := range st.Unscored {
		rows = append(rows, fmt.Sprintf("- **%s**: _no submissions_", e.Tank.Name))
	}

	return joinWithin(head, rows, MaxContentLength)
}

// joinWithin joins head and as many rows as fit in limit characters, noting
// how many rows were left out.
func joinWithin(head, rows []string, limit int) string {
	out := strings.Join(append(head, rows...), "\n")
	if len([]rune(out)) <= limit {
		return out
	}
	for keep := len(rows) - 1; keep >= 0; keep-- {
		lines := append(append([]string{}, head...), rows[:keep]...)
		lines = append(lines, fmt.Sprintf("_…and %d more_", len(rows)-keep))
		out = strings.Join(lines, "\n")
		if len([]rune(out)) <= limit {
			return out
		}
	}
	return string([]rune(out)[:limit])
}
