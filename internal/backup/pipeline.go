package backup

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/tankbot/internal/metrics"
	"github.com/mauv0809/tankbot/internal/tank"
)

// Pipeline takes, packages, optionally encrypts and delivers database backups.
type Pipeline struct {
	db       *sql.DB
	channel  Channel
	opts     Options
	metrics  metrics.Metrics
	counters metrics.MetricsStore
}

// NewPipeline creates a new Pipeline.
func NewPipeline(db *sql.DB, channel Channel, opts Options, m metrics.Metrics, counters metrics.MetricsStore) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		db:       db,
		channel:  channel,
		opts:     opts,
		metrics:  m,
		counters: counters,
	}
}

// Enabled reports whether a backup channel is configured.
func (p *Pipeline) Enabled() bool {
	return p.opts.ChannelID != ""
}

// Encrypted reports whether backups are encrypted.
func (p *Pipeline) Encrypted() bool {
	return p.opts.Passphrase != ""
}

// Run executes snapshot, package, encrypt, checksum and deliver in order.
// The first failing step aborts the run and is reported as a *StepError.
// Nothing reaches the channel unless every earlier step succeeded, and the
// temporary snapshot is removed on every path.
func (p *Pipeline) Run(ctx context.Context, reason Reason) (Result, error) {
	if !p.Enabled() {
		return Result{}, ErrNotConfigured
	}
	start := time.Now()
	res := Result{RunID: uuid.NewString(), CreatedAt: p.opts.Now().UTC().Truncate(time.Second)}
	logger := log.With("run_id", res.RunID, "reason", reason)

	res, err := p.run(ctx, reason, res, logger)
	p.metrics.ObserveBackupDuration(time.Since(start).Seconds())
	if err != nil {
		p.metrics.IncBackupsFailed()
		logger.Error("Backup failed", "error", err)
		return res, err
	}
	p.metrics.IncBackups()
	p.counters.Increment(metrics.KeyBackupsDelivered)
	logger.Info("Backup delivered", "file", res.Filename, "sha256", res.SHA256, "bytes", res.Size)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, reason Reason, res Result, logger *log.Logger) (Result, error) {
	dir, err := os.MkdirTemp(p.opts.TempDir, "tankbot-backup-*")
	if err != nil {
		return res, stepErr(StepSnapshot, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Failed to remove backup temp dir", "dir", dir, "error", err)
		}
	}()

	snapshot := filepath.Join(dir, EntryName)
	if err := Snapshot(ctx, p.db, snapshot); err != nil {
		return res, stepErr(StepSnapshot, err)
	}
	logger.Debug("Snapshot taken", "path", snapshot)

	data, err := Package(snapshot, res.CreatedAt)
	if err != nil {
		return res, stepErr(StepPackage, err)
	}

	if p.Encrypted() {
		if data, err = Encrypt(p.opts.Passphrase, p.opts.Salt, data); err != nil {
			return res, stepErr(StepEncrypt, err)
		}
		res.Encrypted = true
	}

	sum := sha256.Sum256(data)
	res.SHA256 = hex.EncodeToString(sum[:])
	res.Filename = Filename(res.CreatedAt, res.Encrypted)
	res.Size = len(data)

	err = p.channel.Send(ctx, p.opts.ChannelID, Delivery{
		Filename: res.Filename,
		Data:     data,
		SHA256:   res.SHA256,
		Content:  DeliveryMessage(reason, res),
	})
	if err != nil {
		return res, stepErr(StepDeliver, err)
	}
	return res, nil
}

// ReportFailure posts a failure notice to the backup channel.
func (p *Pipeline) ReportFailure(ctx context.Context, err error) error {
	if !p.Enabled() {
		return ErrNotConfigured
	}
	return p.channel.Post(ctx, p.opts.ChannelID, fmt.Sprintf("❌ Backup failed: `%v`", err))
}

// DeliveryMessage is the text posted with a backup attachment.
func DeliveryMessage(reason Reason, res Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧰 **%s DB backup**\n", reason)
	fmt.Fprintf(&b, "- File: `%s`\n", res.Filename)
	fmt.Fprintf(&b, "- SHA-256: `%s`\n", res.SHA256)
	fmt.Fprintf(&b, "- Created (UTC): `%s`", tank.FormatTime(res.CreatedAt))
	if res.Encrypted {
		b.WriteString("\n- Encrypted (Fernet). Salt embedded in file header.")
	}
	return b.String()
}
