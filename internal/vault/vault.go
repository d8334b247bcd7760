// Package vault seals locally stored credentials with a passphrase.
//
// Sealed format: [16-byte salt][12-byte nonce][AES-256-GCM ciphertext],
// base64 encoded for storage in text columns.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4

	sealedPrefix = "sealed:"
)

var ErrWrongPassphrase = errors.New("vault: wrong passphrase or corrupted data")

// GenerateSalt returns 16 cryptographically random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a 32-byte AES-256 key from a passphrase and salt using Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

// Seal encrypts plaintext under passphrase with a fresh salt and nonce.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// Open reverses Seal.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	if len(sealed) < saltSize+nonceSize {
		return nil, fmt.Errorf("sealed data too small")
	}

	salt := sealed[:saltSize]
	nonce := sealed[saltSize : saltSize+nonceSize]
	ciphertext := sealed[saltSize+nonceSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Vault seals string values when a passphrase is configured and passes
// them through unchanged otherwise.
type Vault struct {
	passphrase string
}

func New(passphrase string) *Vault {
	return &Vault{passphrase: passphrase}
}

// Enabled reports whether values are sealed.
func (v *Vault) Enabled() bool {
	return v != nil && v.passphrase != ""
}

func (v *Vault) SealString(s string) (string, error) {
	if !v.Enabled() {
		return s, nil
	}
	sealed, err := Seal([]byte(s), v.passphrase)
	if err != nil {
		return "", err
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenString opens a value produced by SealString. Values stored before a
// passphrase was configured are returned as-is.
func (v *Vault) OpenString(s string) (string, error) {
	raw, ok := strings.CutPrefix(s, sealedPrefix)
	if !ok {
		return s, nil
	}
	if !v.Enabled() {
		return "", fmt.Errorf("vault: value is sealed but no passphrase is configured")
	}
	sealed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	plain, err := Open(sealed, v.passphrase)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
