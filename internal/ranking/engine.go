package ranking

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tankbot/internal/tank"
)

// recordColumns selects a Record from submissions s joined with tanks t.
const recordColumns = `s.id, s.player_name_raw, s.tank_name, s.score, s.submitted_by, s.created_at, t.tier, t.type`

// New creates a new Engine.
func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// BestForTank returns the tank's highest submission, earliest id winning ties,
// or nil when the tank has no submissions.
func (e *Engine) BestForTank(ctx context.Context, name string) (*Record, error) {
	return e.queryRecord(ctx, `
		SELECT `+recordColumns+`
		FROM submissions s
		JOIN tanks t ON t.name = s.tank_name
		WHERE s.tank_name = ?
		ORDER BY s.score DESC, s.id ASC
		LIMIT 1
	`, name)
}

// Champion returns the highest submission among tanks matching filter,
// earliest id winning ties. An empty filter yields the global champion.
func (e *Engine) Champion(ctx context.Context, filter tank.Filter) (*Record, error) {
	q := `SELECT ` + recordColumns + ` FROM submissions s JOIN tanks t ON t.name = s.tank_name`
	var where []string
	var args []any
	if filter.Tier != 0 {
		where = append(where, "t.tier = ?")
		args = append(args, filter.Tier)
	}
	if filter.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, string(filter.Type))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY s.score DESC, s.id ASC LIMIT 1"
	return e.queryRecord(ctx, q, args...)
}

// Qualify compares score against the tank's record and the global champion.
// Nothing is stored.
func (e *Engine) Qualify(ctx context.Context, tankName string, score int) (Qualification, error) {
	var (
		t      tank.Tank
		typ    string
		create string
	)
	err := e.db.QueryRowContext(ctx, "SELECT name, tier, type, created_at FROM tanks WHERE name = ?", tankName).
		Scan(&t.Name, &t.Tier, &typ, &create)
	if errors.Is(err, sql.ErrNoRows) {
		return Qualification{}, tank.ErrTankNotFound
	}
	if err != nil {
		return Qualification{}, err
	}
	t.Type = tank.Type(typ)
	t.CreatedAt = tank.ParseTime(create)

	q := Qualification{Tank: t, Score: score}
	if q.Current, err = e.BestForTank(ctx, tankName); err != nil {
		return Qualification{}, err
	}
	if q.Global, err = e.Champion(ctx, tank.Filter{}); err != nil {
		return Qualification{}, err
	}

	switch {
	case q.Current == nil:
		q.Qualifies = true
		q.Margin = score
	case score > q.Current.Score:
		q.Qualifies = true
		q.Margin = score - q.Current.Score
	case score == q.Current.Score:
		q.Tie = true
		q.Shortfall = 1
	default:
		q.Shortfall = q.Current.Score - score
	}
	q.BeatsGlobal = q.Global != nil && score > q.Global.Score
	return q, nil
}

// TopHoldersByTank ranks players by how many tanks they currently hold the
// record on. The limit is clamped to 1..25.
func (e *Engine) TopHoldersByTank(ctx context.Context, limit int) ([]Holder, error) {
	return e.topHolders(ctx, "s.tank_name", limit)
}

// TopHoldersByBucket ranks players by how many tier and type buckets they
// currently hold the record in. The limit is clamped to 1..25.
func (e *Engine) TopHoldersByBucket(ctx context.Context, limit int) ([]Holder, error) {
	return e.topHolders(ctx, "t.tier, t.type", limit)
}

// topHolders takes rank 1 of every partition, groups the winners by
// normalised player name and orders them by count, then by their earliest
// held record. The display name is the raw name of that earliest record.
func (e *Engine) topHolders(ctx context.Context, partition string, limit int) ([]Holder, error) {
	limit = clamp(limit, 1, 25)
	rows, err := e.db.QueryContext(ctx, `
		WITH ranked AS (
			SELECT
				s.id,
				s.player_name_raw,
				s.player_name_norm,
				ROW_NUMBER() OVER (
					PARTITION BY `+partition+`
					ORDER BY s.score DESC, s.id ASC
				) AS rn
			FROM submissions s
			JOIN tanks t ON t.name = s.tank_name
		),
		tops AS (
			SELECT id, player_name_raw, player_name_norm FROM ranked WHERE rn = 1
		)
		SELECT
			(SELECT d.player_name_raw FROM tops d WHERE d.player_name_norm = g.player_name_norm ORDER BY d.id LIMIT 1),
			COUNT(*) AS tops,
			MIN(g.id) AS first_id
		FROM tops g
		GROUP BY g.player_name_norm
		ORDER BY tops DESC, first_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holders []Holder
	for rows.Next() {
		var h Holder
		var firstID int64
		if err := rows.Scan(&h.Player, &h.Tops, &firstID); err != nil {
			return nil, err
		}
		holders = append(holders, h)
	}
	return holders, rows.Err()
}

// Recent returns the latest submissions, newest first. The limit is clamped to 1..50.
func (e *Engine) Recent(ctx context.Context, limit int) ([]Record, error) {
	limit = clamp(limit, 1, 50)
	rows, err := e.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM submissions s
		JOIN tanks t ON t.name = s.tank_name
		ORDER BY s.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// BucketStandings lists every tank of the bucket with its best submission.
func (e *Engine) BucketStandings(ctx context.Context, bucket tank.Bucket) (Standings, error) {
	rows, err := e.db.QueryContext(ctx, `
		WITH best AS (
			SELECT
				s.id, s.player_name_raw, s.tank_name, s.score, s.submitted_by, s.created_at,
				ROW_NUMBER() OVER (PARTITION BY s.tank_name ORDER BY s.score DESC, s.id ASC) AS rn
			FROM submissions s
			JOIN tanks t ON t.name = s.tank_name
			WHERE t.tier = ? AND t.type = ?
		)
		SELECT t.name, t.tier, t.type, t.created_at,
			b.id, b.player_name_raw, b.score, b.submitted_by, b.created_at
		FROM tanks t
		LEFT JOIN best b ON b.tank_name = t.name AND b.rn = 1
		WHERE t.tier = ? AND t.type = ?
	`, bucket.Tier, string(bucket.Type), bucket.Tier, string(bucket.Type))
	if err != nil {
		return Standings{}, err
	}
	defer rows.Close()

	st := Standings{Bucket: bucket}
	for rows.Next() {
		var (
			entry                          Entry
			typ, tankCreated               string
			id                             sql.NullInt64
			player, submittedBy, subCreate sql.NullString
			score                          sql.NullInt64
		)
		if err := rows.Scan(&entry.Tank.Name, &entry.Tank.Tier, &typ, &tankCreated,
			&id, &player, &score, &submittedBy, &subCreate); err != nil {
			return Standings{}, err
		}
		entry.Tank.Type = tank.Type(typ)
		entry.Tank.CreatedAt = tank.ParseTime(tankCreated)
		if !id.Valid {
			st.Unscored = append(st.Unscored, entry)
			continue
		}
		entry.Best = &Record{
			SubmissionID: id.Int64,
			Player:       player.String,
			TankName:     entry.Tank.Name,
			Score:        int(score.Int64),
			SubmittedBy:  submittedBy.String,
			CreatedAt:    tank.ParseTime(subCreate.String),
			Tier:         entry.Tank.Tier,
			Type:         entry.Tank.Type,
		}
		st.Scored = append(st.Scored, entry)
	}
	if err := rows.Err(); err != nil {
		return Standings{}, err
	}

	sort.Slice(st.Scored, func(i, j int) bool {
		a, b := st.Scored[i].Best, st.Scored[j].Best
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.SubmissionID < b.SubmissionID
	})
	sort.Slice(st.Unscored, func(i, j int) bool {
		a, b := strings.ToLower(st.Unscored[i].Tank.Name), strings.ToLower(st.Unscored[j].Tank.Name)
		if a != b {
			return a < b
		}
		return st.Unscored[i].Tank.Name < st.Unscored[j].Tank.Name
	})
	log.Debug("Computed bucket standings", "bucket", bucket, "scored", len(st.Scored), "unscored", len(st.Unscored))
	return st, nil
}

func (e *Engine) queryRecord(ctx context.Context, query string, args ...any) (*Record, error) {
	r, err := scanRecord(e.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// scanRecord is a helper function to scan a row selected with recordColumns.
func scanRecord(scanner interface{ Scan(...any) error }) (*Record, error) {
	var r Record
	var created, typ string
	if err := scanner.Scan(&r.SubmissionID, &r.Player, &r.TankName, &r.Score, &r.SubmittedBy, &created, &r.Tier, &typ); err != nil {
		return nil, err
	}
	r.CreatedAt = tank.ParseTime(created)
	r.Type = tank.Type(typ)
	return &r, nil
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
