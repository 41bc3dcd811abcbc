package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// EntryName is the only file inside a backup archive.
const EntryName = "highscores.db"

var filenamePattern = regexp.MustCompile(`^highscores_backup_\d{8}_\d{6}Z\.zip(\.enc)?$`)

// Filename names a backup taken at t.
func Filename(t time.Time, encrypted bool) string {
	name := "highscores_backup_" + t.UTC().Format("20060102_150405") + "Z.zip"
	if encrypted {
		name += ".enc"
	}
	return name
}

// IsBackupFilename reports whether name looks like a delivered backup.
func IsBackupFilename(name string) bool {
	return filenamePattern.MatchString(name)
}

// Package compresses the file at path into a zip holding it as EntryName.
func Package(path string, modified time.Time) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     EntryName,
		Method:   zip.Deflate,
		Modified: modified.UTC(),
	})
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(w, f); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExtractEntry returns the contents of EntryName from a backup archive.
func ExtractEntry(zipBytes []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, fmt.Errorf("not a zip archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != EntryName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, ErrMissingEntry
}

// VerifyArchive extracts the database from a backup archive into a
// temporary directory and runs the integrity check on it. The directory is
// removed before returning.
func VerifyArchive(ctx context.Context, zipBytes []byte, tempDir string) error {
	data, err := ExtractEntry(zipBytes)
	if err != nil {
		return stepErr(StepExtract, err)
	}

	dir, err := os.MkdirTemp(tempDir, "tankbot-verify-*")
	if err != nil {
		return stepErr(StepExtract, err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, EntryName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return stepErr(StepExtract, err)
	}

	if err := IntegrityCheck(ctx, path); err != nil {
		return stepErr(StepIntegrity, err)
	}
	return nil
}

// IntegrityCheck runs PRAGMA integrity_check against the database file at path.
func IntegrityCheck(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", ErrIntegrity, result)
	}
	return nil
}
