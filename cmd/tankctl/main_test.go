package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mauv0809/tankbot/internal/backup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBackup(t *testing.T) {
	dir := t.TempDir()
	plain := []byte("PK-not-really-a-zip")

	zipPath := filepath.Join(dir, "tankbot-backup.zip")
	require.NoError(t, os.WriteFile(zipPath, plain, 0o600))

	blob, err := backup.Encrypt("hunter2", nil, plain)
	require.NoError(t, err)
	encPath := filepath.Join(dir, "tankbot-backup.zip.enc")
	require.NoError(t, os.WriteFile(encPath, blob, 0o600))

	t.Run("plain zip is returned as is", func(t *testing.T) {
		got, err := readBackup(zipPath, "")
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	})

	t.Run("encrypted backup is decrypted", func(t *testing.T) {
		got, err := readBackup(encPath, "hunter2")
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	})

	t.Run("encrypted backup needs a passphrase", func(t *testing.T) {
		_, err := readBackup(encPath, "")
		assert.ErrorContains(t, err, "is encrypted")
	})

	t.Run("wrong passphrase fails", func(t *testing.T) {
		_, err := readBackup(encPath, "nope")
		assert.ErrorIs(t, err, backup.ErrDecrypt)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := readBackup(filepath.Join(dir, "missing.zip"), "")
		assert.Error(t, err)
	})
}

func TestPerformGetRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	oldHost, oldToken := host, token
	defer func() { host, token = oldHost, oldToken }()
	host = srv.URL

	t.Run("sends the bearer token", func(t *testing.T) {
		token = "secret"
		var out bytes.Buffer
		require.NoError(t, performGetRequest(&out, "/healthz"))
		assert.Contains(t, out.String(), "Status Code: 200")
		assert.Contains(t, out.String(), "ok")
	})

	t.Run("error status is reported", func(t *testing.T) {
		token = "wrong"
		var out bytes.Buffer
		err := performGetRequest(&out, "/healthz")
		assert.ErrorContains(t, err, "403")
		assert.Contains(t, out.String(), "Forbidden")
	})
}
