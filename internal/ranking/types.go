package ranking

import (
	"database/sql"
	"time"

	"github.com/mauv0809/tankbot/internal/tank"
)

// Engine derives records and leaderboards from the current store contents.
// It never writes and keeps no cached state.
type Engine struct {
	db *sql.DB
}

// Record is a submission together with the bucket of its tank.
type Record struct {
	SubmissionID int64     `json:"id"`
	Player       string    `json:"player"`
	TankName     string    `json:"tank"`
	Score        int       `json:"score"`
	SubmittedBy  string    `json:"submitted_by"`
	CreatedAt    time.Time `json:"created_at"`
	Tier         int       `json:"tier"`
	Type         tank.Type `json:"type"`
}

// Qualification is the outcome of comparing a candidate score against the
// current records without storing it.
type Qualification struct {
	Tank  tank.Tank
	Score int
	// Current is the tank's record, nil when the tank is unscored.
	Current *Record
	// Qualifies is true only when Score is strictly greater than Current.
	Qualifies bool
	// Margin is how far Score exceeds Current when it qualifies.
	Margin int
	// Tie is set when Score equals Current. Ties never qualify.
	Tie bool
	// Shortfall is how much is missing when Score does not qualify.
	Shortfall int
	// Global is the global champion, nil when there are no submissions.
	Global      *Record
	BeatsGlobal bool
}

// Holder is a player and the number of records they currently hold.
type Holder struct {
	Player string `json:"player"`
	Tops   int    `json:"tops"`
}

// Entry is one tank of a bucket and its best submission, if any.
type Entry struct {
	Tank tank.Tank
	Best *Record
}

// Standings is the current leaderboard of one bucket. Scored entries are
// ordered by score descending then earliest submission; unscored entries
// follow, ordered by name.
type Standings struct {
	Bucket   tank.Bucket
	Scored   []Entry
	Unscored []Entry
}

// Top returns the best record of the bucket, or nil when nothing is scored.
func (s Standings) Top() *Record {
	if len(s.Scored) == 0 {
		return nil
	}
	return s.Scored[0].Best
}

// IsEmpty reports whether the bucket has no tanks at all.
func (s Standings) IsEmpty() bool {
	return len(s.Scored) == 0 && len(s.Unscored) == 0
}

// TierGroup holds recent records of one tier.
type TierGroup struct {
	Tier    int
	Records []Record
}

// TypeGroup holds recent records of one type, split by tier.
type TypeGroup struct {
	Type  tank.Type
	Tiers []TierGroup
}
