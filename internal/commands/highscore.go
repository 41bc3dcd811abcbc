package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 25
	statsHolders        = 5
)

func (r *Router) submit(ctx context.Context, inv Invocation) (Reply, error) {
	raw, _ := inv.String("tank")
	name, err := tank.ValidateText("Tank", raw, tank.MaxNameLength)
	if err != nil {
		return Reply{}, err
	}
	score, _ := inv.Int("score")
	if err := tank.ValidateScore(score, r.settings.MaxScore); err != nil {
		return Reply{}, err
	}
	t, err := r.tanks.GetTank(ctx, name)
	if err != nil {
		return Reply{}, err
	}
	if t == nil {
		return Reply{Content: "Unknown tank. Use an existing tank from the roster."}, nil
	}
	rawPlayer, _ := inv.String("player")
	player, err := tank.ValidateText("Player", rawPlayer, tank.MaxNameLength)
	if err != nil {
		return Reply{}, err
	}

	previous, err := r.ranking.BestForTank(ctx, t.Name)
	if err != nil {
		return Reply{}, err
	}
	sub, err := r.tanks.InsertSubmission(ctx, tank.NewSubmission{
		Player:      player,
		TankName:    t.Name,
		Score:       score,
		SubmittedBy: inv.User,
	})
	if err != nil {
		return Reply{}, err
	}
	r.effects.AfterSubmission(sub, *t, previous)
	return Reply{Content: "✅ Submission stored."}, nil
}

func (r *Router) show(ctx context.Context, inv Invocation) (Reply, error) {
	filter, err := filterFrom(inv)
	if err != nil {
		return Reply{}, err
	}
	champ, err := r.ranking.Champion(ctx, filter)
	if err != nil {
		return Reply{}, err
	}
	if champ == nil {
		return Reply{Content: "No submissions found for that filter."}, nil
	}
	label := "Champion"
	if filter.IsEmpty() {
		label = "Global champion"
	}
	return Reply{Content: fmt.Sprintf("🏆 **%s**\n**%d** — **%s** (%s) • Tier %d %s • #%d • %s",
		label, champ.Score, champ.Player, champ.TankName, champ.Tier, champ.Type.Label(),
		champ.SubmissionID, stamp(champ.CreatedAt))}, nil
}

func (r *Router) qualify(ctx context.Context, inv Invocation) (Reply, error) {
	raw, _ := inv.String("tank")
	name, err := tank.ValidateText("Tank", raw, tank.MaxNameLength)
	if err != nil {
		return Reply{}, err
	}
	score, _ := inv.Int("score")
	if err := tank.ValidateScore(score, r.settings.MaxScore); err != nil {
		return Reply{}, err
	}
	player, _ := inv.String("player")
	if strings.TrimSpace(player) == "" {
		player = inv.User
	}
	if player, err = tank.ValidateText("Player", player, tank.MaxNameLength); err != nil {
		return Reply{}, err
	}

	q, err := r.ranking.Qualify(ctx, name, score)
	if err != nil {
		if errors.Is(err, tank.ErrTankNotFound) {
			return Reply{Content: "Unknown tank. Pick an existing tank from the roster."}, nil
		}
		return Reply{}, err
	}
	return Reply{Content: QualificationText(player, q)}, nil
}

// QualificationText renders a qualification check.
func QualificationText(player string, q ranking.Qualification) string {
	lines := []string{
		"**Qualification check**",
		fmt.Sprintf("- Player: **%s**", player),
		fmt.Sprintf("- Tank: **%s** (Tier **%d**, **%s**)", q.Tank.Name, q.Tank.Tier, q.Tank.Type.Label()),
		fmt.Sprintf("- Your score: **%d**", q.Score),
	}

	cur := q.Current
	switch {
	case cur == nil:
		lines = append(lines, "✅ No record exists for this tank. You would become **#1** if submitted.")
	case q.Qualifies:
		lines = append(lines,
			fmt.Sprintf("✅ Current record: **%d** by **%s** (#%d, %s).", cur.Score, cur.Player, cur.SubmissionID, stamp(cur.CreatedAt)),
			fmt.Sprintf("✅ You would be **NEW #1** by **+%d**.", q.Margin))
	default:
		lines = append(lines, fmt.Sprintf("❌ Current record: **%d** by **%s** (#%d, %s).", cur.Score, cur.Player, cur.SubmissionID, stamp(cur.CreatedAt)))
		if q.Tie {
			lines = append(lines, "❌ Ties do not qualify (earlier wins). You need **+1**.")
		} else {
			lines = append(lines, fmt.Sprintf("❌ Short by **%d**.", q.Shortfall))
		}
	}

	if q.BeatsGlobal && q.Global != nil {
		lines = append(lines, "", fmt.Sprintf("🏆 Would also beat global champion (**%d**, %s by %s).", q.Global.Score, q.Global.TankName, q.Global.Player))
	}
	return strings.Join(lines, "\n")
}

func (r *Router) history(ctx context.Context, inv Invocation) (Reply, error) {
	limit := clamp(inv.IntOr("limit", defaultHistoryLimit), 1, maxHistoryLimit)
	records, err := r.ranking.Recent(ctx, limit)
	if err != nil {
		return Reply{}, err
	}
	if len(records) == 0 {
		return Reply{Content: "No submissions yet."}, nil
	}
	champ, err := r.ranking.Champion(ctx, tank.Filter{})
	if err != nil {
		return Reply{}, err
	}
	byTank, err := r.ranking.TopHoldersByTank(ctx, statsHolders)
	if err != nil {
		return Reply{}, err
	}
	byBucket, err := r.ranking.TopHoldersByBucket(ctx, statsHolders)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: HistoryText(records, champ, byTank, byBucket)}, nil
}

// HistoryText renders recent submissions grouped by type and tier, followed by
// the current record holder stats.
func HistoryText(records []ranking.Record, champ *ranking.Record, byTank, byBucket []ranking.Holder) string {
	var lines []string
	for _, g := range ranking.GroupRecent(records) {
		lines = append(lines, "## "+g.Type.Label())
		for _, tg := range g.Tiers {
			lines = append(lines, fmt.Sprintf("**Tier %d**", tg.Tier))
			for _, rec := range tg.Records {
				badge := ""
				if champ != nil && rec.SubmissionID == champ.SubmissionID {
					badge = "🏆 **TOP** "
				}
				lines = append(lines, fmt.Sprintf("%s**#%d** — **%d** — **%s** (%s) • %s",
					badge, rec.SubmissionID, rec.Score, rec.Player, rec.TankName, stamp(rec.CreatedAt)))
			}
			lines = append(lines, "")
		}
	}

	lines = append(lines, "---", "### 📊 Stats (current #1 holders)", "**Most #1 tanks:**")
	for i, h := range byTank {
		lines = append(lines, fmt.Sprintf("%d. **%s** — %d tank tops", i+1, h.Player, h.Tops))
	}
	lines = append(lines, "", "**Most #1 Tier×Type buckets:**")
	for i, h := range byBucket {
		lines = append(lines, fmt.Sprintf("%d. **%s** — %d bucket tops", i+1, h.Player, h.Tops))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// filterFrom reads the optional tier and type options.
func filterFrom(inv Invocation) (tank.Filter, error) {
	var f tank.Filter
	if tier, ok := inv.Int("tier"); ok {
		if err := tank.ValidateTier(tier); err != nil {
			return f, err
		}
		f.Tier = tier
	}
	if raw, ok := inv.String("type"); ok && strings.TrimSpace(raw) != "" {
		t, err := tank.NormalizeType(raw)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	return f, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
