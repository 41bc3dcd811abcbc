package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultScanLimit is how many channel messages Verify looks through.
const DefaultScanLimit = 50

// MaxScanLimit bounds how far back Verify looks.
const MaxScanLimit = 200

// Verify finds the newest backup in the channel history, reverses
// encryption and packaging, and runs the integrity check on the database
// inside. Decrypted content only lives in memory and in a temporary file
// that is removed before returning.
func (p *Pipeline) Verify(ctx context.Context, scanLimit int) (VerifyResult, error) {
	if !p.Enabled() {
		return VerifyResult{}, ErrNotConfigured
	}
	res, err := p.verify(ctx, scanLimit)
	if err != nil || !res.OK {
		p.metrics.IncVerificationsFailed()
		log.Warn("Backup verification failed", "file", res.Filename, "error", err)
		return res, err
	}
	p.metrics.IncVerifications()
	log.Info("Backup verified", "file", res.Filename, "sha256", res.Digest())
	return res, nil
}

func (p *Pipeline) verify(ctx context.Context, scanLimit int) (VerifyResult, error) {
	if scanLimit < 1 || scanLimit > MaxScanLimit {
		scanLimit = DefaultScanLimit
	}
	messages, err := p.channel.History(ctx, p.opts.ChannelID, scanLimit)
	if err != nil {
		return VerifyResult{}, stepErr(StepFetch, err)
	}

	att, found := latestBackup(messages)
	if !found {
		return VerifyResult{}, stepErr(StepFetch, fmt.Errorf("%w in last %d messages", ErrNoBackupFound, scanLimit))
	}
	res := VerifyResult{Filename: att.Filename}

	blob, err := p.channel.Download(ctx, att)
	if err != nil {
		return res, stepErr(StepFetch, err)
	}
	sum := sha256.Sum256(blob)
	res.SHA256 = hex.EncodeToString(sum[:])

	zipBytes := blob
	if strings.HasSuffix(att.Filename, ".enc") {
		if zipBytes, err = DecryptBlob(p.opts.Passphrase, blob); err != nil {
			return res, stepErr(StepDecrypt, err)
		}
	}

	if err := VerifyArchive(ctx, zipBytes, p.opts.TempDir); err != nil {
		return res, err
	}
	res.OK = true
	return res, nil
}

// latestBackup returns the first backup attachment of the newest message carrying one.
func latestBackup(messages []Message) (Attachment, bool) {
	for _, m := range messages {
		for _, a := range m.Attachments {
			if IsBackupFilename(a.Filename) {
				return a, true
			}
		}
	}
	return Attachment{}, false
}
