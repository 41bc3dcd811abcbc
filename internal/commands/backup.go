package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/mauv0809/tankbot/internal/backup"
)

const (
	minScanLimit = 10
	maxScanLimit = backup.MaxScanLimit
)

func (r *Router) backupNow(_ context.Context, _ Invocation) (Reply, error) {
	if !r.backups.Enabled() {
		return Reply{Content: "Backups are not configured (BACKUP_CHANNEL_ID)."}, nil
	}
	return Reply{
		Content: "Running backup…",
		Followup: func(ctx context.Context) string {
			res, err := r.backups.CreateBackupNow(ctx)
			if err != nil {
				return fmt.Sprintf("❌ Backup failed: %v", err)
			}
			return fmt.Sprintf("✅ Posted `%s` to backup channel.", res.Filename)
		},
	}, nil
}

func (r *Router) backupStatus(_ context.Context, _ Invocation) (Reply, error) {
	return Reply{Content: BackupStatusText(r.settings, r.backups.LastBackupStatus())}, nil
}

// BackupStatusText renders the schedule and the outcome of the last run.
func BackupStatusText(s Settings, st backup.Status) string {
	channel := s.BackupChannelID
	if channel == "" {
		channel = "not set"
	}
	loc := st.Location
	next := "n/a"
	if st.Enabled && !st.NextRun.IsZero() {
		next = st.NextRun.Format(time.RFC3339)
	}
	return fmt.Sprintf("Backup channel: `%s`\n"+
		"Schedule: weekday=%d time=%02d:%02d (%s)\n"+
		"Last backup: %s\n"+
		"Next run: `%s` (%s)",
		channel, s.Schedule.Weekday, s.Schedule.Hour, s.Schedule.Minute, loc,
		lastBackup(st), next, loc)
}

func lastBackup(st backup.Status) string {
	if !st.HasRun {
		return "`n/a`"
	}
	return fmt.Sprintf("`%s` ok=`%t` `%s`", stamp(st.LastAt), st.LastOK, st.LastMessage)
}

func (r *Router) backupVerify(_ context.Context, inv Invocation) (Reply, error) {
	if !r.backups.Enabled() {
		return Reply{Content: "Backups are not configured (BACKUP_CHANNEL_ID)."}, nil
	}
	limit := clamp(inv.IntOr("scan_limit", backup.DefaultScanLimit), minScanLimit, maxScanLimit)
	return Reply{
		Content: "Verifying latest backup…",
		Followup: func(ctx context.Context) string {
			return VerifyText(r.backups.VerifyLatest(ctx, limit))
		},
	}, nil
}

// VerifyText renders the outcome of a verification.
func VerifyText(res backup.VerifyResult, err error) string {
	switch {
	case err == nil && res.OK:
		return fmt.Sprintf("✅ Verified `%s` — integrity_check=ok — sha256=%s…", res.Filename, res.Digest())
	case res.Filename == "":
		return fmt.Sprintf("❌ %v", err)
	case err == nil:
		return fmt.Sprintf("❌ Verified `%s` — integrity_check FAILED — sha256=%s…", res.Filename, res.Digest())
	}
	return fmt.Sprintf("❌ Verify failed for `%s`: %v", res.Filename, err)
}
