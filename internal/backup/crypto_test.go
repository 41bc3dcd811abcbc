package backup

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	data := []byte("PK\x03\x04 pretend this is a zip archive")

	blob, err := Encrypt("correct horse", nil, data)
	require.NoError(t, err)

	got, err := DecryptBlob("correct horse", blob)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = DecryptBlob("battery staple", blob)
	assert.ErrorIs(t, err, ErrDecrypt, "Wrong passphrase must fail authentication")

	_, err = DecryptBlob("", blob)
	assert.ErrorIs(t, err, ErrNoPassphrase)
}

func TestEncrypt_HeaderFormat(t *testing.T) {
	salt := bytes.Repeat([]byte{0xfb}, SaltSize)

	blob, err := Encrypt("pw", salt, []byte("data"))
	require.NoError(t, err)

	wantHeader := "TANKBOT1\nSALT_B64:" + base64.URLEncoding.EncodeToString(salt) + "\n\n"
	assert.True(t, strings.HasPrefix(string(blob), wantHeader), "header was %q", string(blob[:len(wantHeader)]))
	assert.Contains(t, wantHeader, "-", "base64url alphabet is used")

	gotSalt, token, err := ParseHeader(blob)
	require.NoError(t, err)
	assert.Equal(t, salt, gotSalt)
	assert.Equal(t, blob[len(wantHeader):], token)
}

func TestParseHeader_Invalid(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "Plain zip", blob: "PK\x03\x04..."},
		{name: "No blank line", blob: "TANKBOT1\nSALT_B64:AAAA\ntoken"},
		{name: "No salt line", blob: "TANKBOT1\nFOO:bar\n\ntoken"},
		{name: "Bad salt", blob: "TANKBOT1\nSALT_B64:!!!\n\ntoken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseHeader([]byte(tt.blob))
			assert.ErrorIs(t, err, ErrBadHeader)
		})
	}
}

func TestDecodeSalt(t *testing.T) {
	salt := []byte("0123456789abcdef")

	got, err := DecodeSalt(base64.URLEncoding.EncodeToString(salt))
	require.NoError(t, err)
	assert.Equal(t, salt, got)

	got, err = DecodeSalt(base64.RawURLEncoding.EncodeToString(salt))
	require.NoError(t, err)
	assert.Equal(t, salt, got, "Unpadded salts are accepted")

	_, err = DecodeSalt("not base64!")
	assert.Error(t, err)
}
