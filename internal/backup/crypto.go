package backup

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/pbkdf2"
)

const (
	Magic      = "TANKBOT1"
	Iterations = 200_000
	SaltSize   = 16
	keySize    = 32

	saltPrefix = "SALT_B64:"
)

// tokens never expire
const tokenTTL = 100 * 365 * 24 * time.Hour

// DeriveKey stretches a passphrase into a Fernet key with PBKDF2-HMAC-SHA256.
func DeriveKey(passphrase string, salt []byte) *fernet.Key {
	var k fernet.Key
	copy(k[:], pbkdf2.Key([]byte(passphrase), salt, Iterations, keySize, sha256.New))
	return &k
}

// DecodeSalt accepts base64url with or without padding.
func DecodeSalt(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	salt, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		salt, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("salt is not valid base64url: %w", err)
	}
	return salt, nil
}

// Encrypt seals data and prepends the self-describing header. A nil salt
// draws a fresh random one.
func Encrypt(passphrase string, salt, data []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	if salt == nil {
		salt = make([]byte, SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to draw salt: %w", err)
		}
	}
	token, err := fernet.EncryptAndSign(data, DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(Magic + "\n")
	buf.WriteString(saltPrefix + base64.URLEncoding.EncodeToString(salt) + "\n\n")
	buf.Write(token)
	return buf.Bytes(), nil
}

// ParseHeader splits an encrypted backup into its salt and token.
func ParseHeader(blob []byte) (salt, token []byte, err error) {
	if !bytes.HasPrefix(blob, []byte(Magic+"\n")) {
		return nil, nil, ErrBadHeader
	}
	header, token, found := bytes.Cut(blob, []byte("\n\n"))
	if !found {
		return nil, nil, fmt.Errorf("%w: missing blank line after header", ErrBadHeader)
	}
	for _, line := range strings.Split(string(header), "\n") {
		if rest, ok := strings.CutPrefix(line, saltPrefix); ok {
			salt, err := DecodeSalt(rest)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
			}
			return salt, bytes.TrimSpace(token), nil
		}
	}
	return nil, nil, fmt.Errorf("%w: missing %s", ErrBadHeader, strings.TrimSuffix(saltPrefix, ":"))
}

// DecryptBlob reverses Encrypt. A wrong passphrase fails with ErrDecrypt.
func DecryptBlob(passphrase string, blob []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	salt, token, err := ParseHeader(blob)
	if err != nil {
		return nil, err
	}
	data := fernet.VerifyAndDecrypt(token, tokenTTL, []*fernet.Key{DeriveKey(passphrase, salt)})
	if data == nil {
		return nil, ErrDecrypt
	}
	return data, nil
}
