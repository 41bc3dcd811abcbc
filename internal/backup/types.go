package backup

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotConfigured = errors.New("backup channel is not configured")
	ErrNoPassphrase  = errors.New("BACKUP_ENCRYPTION_PASSPHRASE is not set; cannot handle encrypted backups")
	ErrBadHeader     = errors.New("not a TANKBOT1 encrypted backup file")
	ErrDecrypt       = errors.New("decryption failed: wrong passphrase or corrupted file")
	ErrMissingEntry  = errors.New("zip does not contain " + EntryName)
	ErrIntegrity     = errors.New("integrity_check failed")
	ErrNoBackupFound = errors.New("no backup attachments found")
	ErrNotLocal      = errors.New("snapshot requires a local sqlite database")
)

// Step names a stage of a backup or verification run.
type Step string

const (
	StepSnapshot  Step = "snapshot"
	StepPackage   Step = "package"
	StepEncrypt   Step = "encrypt"
	StepDeliver   Step = "deliver"
	StepFetch     Step = "fetch"
	StepDecrypt   Step = "decrypt"
	StepExtract   Step = "extract"
	StepIntegrity Step = "integrity"
)

// StepError reports the step a run stopped at and why.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step Step, err error) error {
	return &StepError{Step: step, Err: err}
}

// Reason says why a backup was taken. It heads the delivery message.
type Reason string

const (
	ReasonScheduled Reason = "Weekly"
	ReasonManual    Reason = "Manual"
)

// Options configures a Pipeline.
type Options struct {
	// ChannelID is where backups are delivered and searched for. Empty disables backups.
	ChannelID string
	// Passphrase enables encryption when set.
	Passphrase string
	// Salt is used for every backup when set, otherwise a random salt is drawn per backup.
	Salt []byte
	// TempDir holds transient files. Empty means the system default.
	TempDir string
	Now     func() time.Time
}

// Delivery is a finished backup handed to the channel.
type Delivery struct {
	Filename string
	Data     []byte
	SHA256   string
	Content  string
}

// Attachment is a file attached to a channel message.
type Attachment struct {
	Filename string
	URL      string
}

// Message is a channel message with its attachments.
type Message struct {
	ID          string
	Attachments []Attachment
}

// Channel delivers backups and reads them back.
type Channel interface {
	Send(ctx context.Context, channelID string, d Delivery) error
	Post(ctx context.Context, channelID, content string) error
	// History returns up to limit recent messages, newest first.
	History(ctx context.Context, channelID string, limit int) ([]Message, error)
	Download(ctx context.Context, a Attachment) ([]byte, error)
}

// Result describes a delivered backup.
type Result struct {
	RunID     string
	Filename  string
	SHA256    string
	Size      int
	Encrypted bool
	CreatedAt time.Time
}

// VerifyResult describes a verified backup.
type VerifyResult struct {
	Filename string
	OK       bool
	SHA256   string
}

// Digest is the shortened checksum shown to users.
func (r VerifyResult) Digest() string {
	if len(r.SHA256) < 12 {
		return r.SHA256
	}
	return r.SHA256[:12]
}

// Status is the observable state of the scheduler.
type Status struct {
	Enabled     bool      `json:"enabled"`
	HasRun      bool      `json:"has_run"`
	LastAt      time.Time `json:"last_at,omitempty"`
	LastOK      bool      `json:"last_ok"`
	LastMessage string    `json:"last_message,omitempty"`
	NextRun     time.Time `json:"next_run"`
	Location    string    `json:"location"`
}
