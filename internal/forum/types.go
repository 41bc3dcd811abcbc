package forum

import (
	"errors"
	"fmt"

	"github.com/mauv0809/tankbot/internal/tank"
)

var (
	// ErrForumUnavailable is returned when the configured forum channel cannot be resolved.
	ErrForumUnavailable = errors.New("forum channel unavailable")
	// ErrThreadCreate is returned when a bucket thread cannot be created.
	ErrThreadCreate = errors.New("failed to create bucket thread")
)

// Tag is a forum tag.
type Tag struct {
	ID   string
	Name string
}

// Forum is a forum channel and the tags it offers.
type Forum struct {
	ID   string
	Tags []Tag
}

// TagID returns the id of the tag with the given name.
func (f Forum) TagID(name string) (string, bool) {
	for _, t := range f.Tags {
		if t.Name == name {
			return t.ID, true
		}
	}
	return "", false
}

// Thread is a forum thread. Its starter message shares the thread id.
type Thread struct {
	ID      string
	ForumID string
	Name    string
}

// Title returns the thread title of a bucket, e.g. "Tier 7 — Heavy Tanks".
func Title(b tank.Bucket) string {
	return fmt.Sprintf("Tier %d — %s", b.Tier, b.Type.PluralLabel())
}

// TagNames returns the tags a bucket thread carries.
func TagNames(b tank.Bucket) []string {
	return []string{fmt.Sprintf("Tier %d", b.Tier), b.Type.Label()}
}
