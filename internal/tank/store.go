package tank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a new Store backed by db.
func New(db *sql.DB) Store {
	return &store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// NewWithClock creates a Store that stamps rows with now. Used by tests.
func NewWithClock(db *sql.DB, now func() time.Time) Store {
	return &store{db: db, now: now}
}

// AddTank inserts a new tank and records the change in the same transaction.
func (s *store) AddTank(ctx context.Context, spec Spec, actor string) (Tank, error) {
	spec, err := ValidateSpec(spec)
	if err != nil {
		return Tank{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Tank{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM tanks WHERE name = ?", spec.Name).Scan(&exists)
	if err == nil {
		return Tank{}, ErrTankExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Tank{}, err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tanks (name, tier, type, created_at) VALUES (?, ?, ?, ?)",
		spec.Name, spec.Tier, string(spec.Type), FormatTime(created),
	); err != nil {
		return Tank{}, fmt.Errorf("failed to insert tank: %w", err)
	}
	details := fmt.Sprintf("%s|tier=%d|type=%s", spec.Name, spec.Tier, spec.Type)
	if err := logChange(ctx, tx, ActionAdd, details, actor, created); err != nil {
		return Tank{}, err
	}
	if err := tx.Commit(); err != nil {
		return Tank{}, err
	}

	log.Info("Tank added", "name", spec.Name, "tier", spec.Tier, "type", spec.Type, "actor", actor)
	return Tank{Name: spec.Name, Tier: spec.Tier, Type: spec.Type, CreatedAt: created.Truncate(time.Second)}, nil
}

// EditTank changes the tier and type of an existing tank. It returns the tank as
// it was before and after the edit so callers can refresh both buckets.
func (s *store) EditTank(ctx context.Context, spec Spec, actor string) (Tank, Tank, error) {
	spec, err := ValidateSpec(spec)
	if err != nil {
		return Tank{}, Tank{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Tank{}, Tank{}, err
	}
	defer tx.Rollback()

	old, err := scanTank(tx.QueryRowContext(ctx, "SELECT name, tier, type, created_at FROM tanks WHERE name = ?", spec.Name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tank{}, Tank{}, ErrTankNotFound
		}
		return Tank{}, Tank{}, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE tanks SET tier = ?, type = ? WHERE name = ?",
		spec.Tier, string(spec.Type), spec.Name,
	); err != nil {
		return Tank{}, Tank{}, fmt.Errorf("failed to update tank: %w", err)
	}
	details := fmt.Sprintf("%s|tier=%d|type=%s", spec.Name, spec.Tier, spec.Type)
	if err := logChange(ctx, tx, ActionEdit, details, actor, s.now()); err != nil {
		return Tank{}, Tank{}, err
	}
	if err := tx.Commit(); err != nil {
		return Tank{}, Tank{}, err
	}

	updated := old
	updated.Tier = spec.Tier
	updated.Type = spec.Type
	log.Info("Tank edited", "name", spec.Name, "from", old.Bucket(), "to", updated.Bucket(), "actor", actor)
	return old, updated, nil
}

// RemoveTank deletes a tank that has no submissions. If any submission
// references it nothing is deleted and ErrTankHasSubmissions is returned.
func (s *store) RemoveTank(ctx context.Context, name, actor string) (Tank, error) {
	name, err := ValidateName(name)
	if err != nil {
		return Tank{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Tank{}, err
	}
	defer tx.Rollback()

	t, err := scanTank(tx.QueryRowContext(ctx, "SELECT name, tier, type, created_at FROM tanks WHERE name = ?", name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tank{}, ErrTankNotFound
		}
		return Tank{}, err
	}

	var referenced int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM submissions WHERE tank_name = ? LIMIT 1", name).Scan(&referenced)
	if err == nil {
		log.Warn("Refusing to remove tank with submissions", "name", name, "actor", actor)
		return Tank{}, ErrTankHasSubmissions
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Tank{}, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tanks WHERE name = ?", name); err != nil {
		return Tank{}, fmt.Errorf("failed to delete tank: %w", err)
	}
	if err := logChange(ctx, tx, ActionRemove, name, actor, s.now()); err != nil {
		return Tank{}, err
	}
	if err := tx.Commit(); err != nil {
		return Tank{}, err
	}

	log.Info("Tank removed", "name", name, "actor", actor)
	return t, nil
}

// GetTank returns the named tank, or nil when it does not exist.
func (s *store) GetTank(ctx context.Context, name string) (*Tank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := scanTank(s.db.QueryRowContext(ctx, "SELECT name, tier, type, created_at FROM tanks WHERE name = ?", name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ListTanks returns tanks matching filter ordered by tier descending, type, name.
func (s *store) ListTanks(ctx context.Context, filter Filter) ([]Tank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := "SELECT name, tier, type, created_at FROM tanks"
	var where []string
	var args []any
	if filter.Tier != 0 {
		where = append(where, "tier = ?")
		args = append(args, filter.Tier)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY tier DESC, type, name"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tanks []Tank
	for rows.Next() {
		t, err := scanTank(rows)
		if err != nil {
			return nil, err
		}
		tanks = append(tanks, t)
	}
	return tanks, rows.Err()
}

// HasSubmissions reports whether any submission references the named tank.
func (s *store) HasSubmissions(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM submissions WHERE tank_name = ? LIMIT 1", name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// InsertSubmission stores a new score for an existing tank.
func (s *store) InsertSubmission(ctx context.Context, in NewSubmission) (Submission, error) {
	player, err := ValidateText("Player", in.Player, MaxNameLength)
	if err != nil {
		return Submission{}, err
	}
	if in.Score < 1 {
		return Submission{}, invalid("Score must be positive.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Submission{}, err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM tanks WHERE name = ?", in.TankName).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrTankNotFound
	}
	if err != nil {
		return Submission{}, err
	}

	sub := Submission{
		PlayerRaw:   player,
		PlayerNorm:  NormalizePlayer(player),
		TankName:    in.TankName,
		Score:       in.Score,
		SubmittedBy: in.SubmittedBy,
		CreatedAt:   created.Truncate(time.Second),
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO submissions (player_name_raw, player_name_norm, tank_name, score, submitted_by, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		sub.PlayerRaw, sub.PlayerNorm, sub.TankName, sub.Score, sub.SubmittedBy, FormatTime(created),
	)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to insert submission: %w", err)
	}
	if sub.ID, err = res.LastInsertId(); err != nil {
		return Submission{}, err
	}
	if err := tx.Commit(); err != nil {
		return Submission{}, err
	}

	log.Info("Submission stored", "id", sub.ID, "tank", sub.TankName, "score", sub.Score, "player", sub.PlayerRaw)
	return sub, nil
}

// Changes returns the most recent change log entries, newest first.
// The limit is clamped to 1..50.
func (s *store) Changes(ctx context.Context, limit int) ([]Change, error) {
	limit = clamp(limit, 1, 50)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, action, details, actor, created_at FROM tank_changes ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []Change
	for rows.Next() {
		var c Change
		var action, created string
		if err := rows.Scan(&c.ID, &action, &c.Details, &c.Actor, &created); err != nil {
			return nil, err
		}
		c.Action = Action(action)
		c.CreatedAt = ParseTime(created)
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Counts returns the number of tanks, submissions and bucket mappings.
func (s *store) Counts(ctx context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tanks),
			(SELECT COUNT(*) FROM submissions),
			(SELECT COUNT(*) FROM tank_index_posts)
	`).Scan(&c.Tanks, &c.Submissions, &c.Mappings)
	return c, err
}

// Mapping returns the forum thread mapping for bucket, or nil when none exists.
func (s *store) Mapping(ctx context.Context, bucket Bucket) (*Mapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := Mapping{Bucket: bucket}
	err := s.db.QueryRowContext(ctx,
		"SELECT thread_id, forum_channel_id FROM tank_index_posts WHERE tier = ? AND type = ?",
		bucket.Tier, string(bucket.Type),
	).Scan(&m.ThreadID, &m.ForumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SetMapping creates or replaces the mapping for a bucket.
func (s *store) SetMapping(ctx context.Context, m Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO tank_index_posts (tier, type, thread_id, forum_channel_id) VALUES (?, ?, ?, ?)",
		m.Tier, string(m.Type), m.ThreadID, m.ForumID,
	)
	if err != nil {
		return fmt.Errorf("failed to store mapping for %s: %w", m.Bucket, err)
	}
	log.Debug("Stored bucket mapping", "bucket", m.Bucket, "thread", m.ThreadID)
	return nil
}

// Buckets returns the cross product of every distinct type and every distinct
// tier in the roster, ordered by type then tier. Combinations without tanks
// are included.
func (s *store) Buckets(ctx context.Context) ([]Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT tier, type FROM tanks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tierSet := map[int]struct{}{}
	typeSet := map[Type]struct{}{}
	for rows.Next() {
		var tier int
		var t string
		if err := rows.Scan(&tier, &t); err != nil {
			return nil, err
		}
		tierSet[tier] = struct{}{}
		typeSet[Type(t)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tiers := make([]int, 0, len(tierSet))
	for tier := range tierSet {
		tiers = append(tiers, tier)
	}
	sort.Ints(tiers)
	types := make([]Type, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	buckets := make([]Bucket, 0, len(tiers)*len(types))
	for _, t := range types {
		for _, tier := range tiers {
			buckets = append(buckets, Bucket{Tier: tier, Type: t})
		}
	}
	return buckets, nil
}

func logChange(ctx context.Context, tx *sql.Tx, action Action, details, actor string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO tank_changes (action, details, actor, created_at) VALUES (?, ?, ?, ?)",
		string(action), details, actor, FormatTime(at),
	)
	if err != nil {
		return fmt.Errorf("failed to log tank change: %w", err)
	}
	return nil
}

// scanTank is a helper function to scan a single tank row.
func scanTank(scanner interface{ Scan(...any) error }) (Tank, error) {
	var t Tank
	var typ, created string
	if err := scanner.Scan(&t.Name, &t.Tier, &typ, &created); err != nil {
		return Tank{}, err
	}
	t.Type = Type(typ)
	t.CreatedAt = ParseTime(created)
	return t, nil
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
