package tank

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// TimeLayout is the UTC layout used for every stored timestamp.
const TimeLayout = "2006-01-02T15:04:05Z"

// store handles all database operations for the tank roster and its submissions.
type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Type is the tank class. The set is fixed.
type Type string

const (
	Light  Type = "light"
	Medium Type = "medium"
	Heavy  Type = "heavy"
	TD     Type = "td"
)

// Types lists every valid type in the order commands and help texts present them.
var Types = []Type{Light, Medium, Heavy, TD}

// Label is the singular display name, also used as the forum tag name.
func (t Type) Label() string {
	switch t {
	case Light:
		return "Light"
	case Medium:
		return "Medium"
	case Heavy:
		return "Heavy"
	case TD:
		return "Tank Destroyer"
	}
	return string(t)
}

// PluralLabel is used in bucket thread titles.
func (t Type) PluralLabel() string {
	switch t {
	case Light:
		return "Light Tanks"
	case Medium:
		return "Medium Tanks"
	case Heavy:
		return "Heavy Tanks"
	case TD:
		return "Tank Destroyers"
	}
	return t.Label()
}

// Tank is a roster entry.
type Tank struct {
	Name      string    `json:"name"`
	Tier      int       `json:"tier"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Bucket returns the (tier, type) bucket the tank belongs to.
func (t Tank) Bucket() Bucket {
	return Bucket{Tier: t.Tier, Type: t.Type}
}

// Spec describes a tank to add, edit or import.
type Spec struct {
	Name string
	Tier int
	Type Type
}

// Bucket is the set of tanks sharing a tier and a type.
type Bucket struct {
	Tier int  `json:"tier"`
	Type Type `json:"type"`
}

func (b Bucket) String() string {
	return fmt.Sprintf("tier %d %s", b.Tier, b.Type)
}

// Submission is a stored score. Submissions are never modified.
type Submission struct {
	ID          int64     `json:"id"`
	PlayerRaw   string    `json:"player"`
	PlayerNorm  string    `json:"-"`
	TankName    string    `json:"tank"`
	Score       int       `json:"score"`
	SubmittedBy string    `json:"submitted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSubmission holds the user supplied fields of a submission.
type NewSubmission struct {
	Player      string
	TankName    string
	Score       int
	SubmittedBy string
}

// Action is the kind of roster mutation recorded in the change log.
type Action string

const (
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionRemove Action = "remove"
)

// Change is one row of the append-only roster audit log.
type Change struct {
	ID        int64     `json:"id"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// Mapping links a bucket to its mirrored forum thread.
type Mapping struct {
	Bucket
	ThreadID string
	ForumID  string
}

// Filter narrows roster and ranking queries. Zero values match everything.
type Filter struct {
	Tier int
	Type Type
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool {
	return f.Tier == 0 && f.Type == ""
}

// Counts summarises table sizes for health output.
type Counts struct {
	Tanks       int `json:"tanks"`
	Submissions int `json:"submissions"`
	Mappings    int `json:"mappings"`
}

// FormatTime renders t in the stored layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. Unparseable values yield the zero time.
func ParseTime(s string) time.Time {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
