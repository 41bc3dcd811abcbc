package forum

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/tankbot/internal/ranking"
	"github.com/mauv0809/tankbot/internal/tank"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	heavy := tank.Bucket{Tier: 7, Type: tank.Heavy}
	tests := []struct {
		name      string
		standings ranking.Standings
	}{
		{
			name: "render_bucket",
			standings: ranking.Standings{
				Bucket: heavy,
				Scored: []ranking.Entry{
					{
						Tank: tank.Tank{Name: "Tiger II", Tier: 7, Type: tank.Heavy},
						Best: &ranking.Record{SubmissionID: 3, Player: "Alice", TankName: "Tiger II", Score: 500,
							CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Tier: 7, Type: tank.Heavy},
					},
					{
						Tank: tank.Tank{Name: "IS", Tier: 7, Type: tank.Heavy},
						Best: &ranking.Record{SubmissionID: 5, Player: "Bob", TankName: "IS", Score: 420,
							CreatedAt: time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC), Tier: 7, Type: tank.Heavy},
					},
				},
				Unscored: []ranking.Entry{{Tank: tank.Tank{Name: "KV-1", Tier: 7, Type: tank.Heavy}}},
			},
		},
		{
			name:      "render_empty",
			standings: ranking.Standings{Bucket: tank.Bucket{Tier: 9, Type: tank.Light}},
		},
		{
			name: "render_unscored",
			standings: ranking.Standings{
				Bucket:   tank.Bucket{Tier: 4, Type: tank.TD},
				Unscored: []ranking.Entry{{Tank: tank.Tank{Name: "Hellcat", Tier: 4, Type: tank.TD}}},
			},
		},
	}

	g := goldie.New(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(Render(tt.standings)))
		})
	}
}

func TestRender_TruncatesLongBuckets(t *testing.T) {
	st := ranking.Standings{Bucket: tank.Bucket{Tier: 5, Type: tank.Medium}}
	for i := 0; i < 200; i++ {
		st.Unscored = append(st.Unscored, ranking.Entry{Tank: tank.Tank{Name: fmt.Sprintf("Prototype %03d", i)}})
	}

	out := Render(st)
	assert.LessOrEqual(t, len([]rune(out)), MaxContentLength)
	assert.True(t, strings.HasPrefix(out, "**Leaderboard — Tier 5 / Medium**"))
	assert.Contains(t, out, "- **Prototype 000**: _no submissions_")
	assert.Regexp(t, `_…and \d+ more_$`, out)
}

func TestTitleAndTags(t *testing.T) {
	assert.Equal(t, "Tier 7 — Heavy Tanks", Title(tank.Bucket{Tier: 7, Type: tank.Heavy}))
	assert.Equal(t, "Tier 10 — Tank Destroyers", Title(tank.Bucket{Tier: 10, Type: tank.TD}))
	assert.Equal(t, []string{"Tier 3", "Light"}, TagNames(tank.Bucket{Tier: 3, Type: tank.Light}))
}
