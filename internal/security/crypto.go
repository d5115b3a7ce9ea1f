package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltFileName     = ".salt"
	saltSize         = 32
	keySize          = 32
	pbkdf2Iterations = 100000
)

// TokenEncryptor seals OAuth token blobs before they reach the credential store.
// The key is derived from the machine id, the user's home directory and a
// random salt kept next to the store, so a copied store file is useless on
// another machine or account.
type TokenEncryptor struct {
	aead cipher.AEAD
}

// NewTokenEncryptor creates a token encryptor bound to dataDir
func NewTokenEncryptor(dataDir string) (*TokenEncryptor, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, NewCryptoError("init", "failed to create data directory").WithCause(err)
	}

	salt, err := generateOrLoadSalt(dataDir)
	if err != nil {
		return nil, NewCryptoError("init", "failed to prepare salt").WithCause(err)
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil, NewCryptoError("init", "home directory is not available").WithCause(err)
	}

	keyMaterial := fmt.Sprintf("%s:%s", getMachineID(), home)
	key := pbkdf2.Key([]byte(keyMaterial), salt, pbkdf2Iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewCryptoError("init", "failed to create cipher").WithCause(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, NewCryptoError("init", "failed to create GCM").WithCause(err)
	}

	return &TokenEncryptor{aead: aead}, nil
}

// Encrypt encrypts plaintext data and returns base64-encoded ciphertext
func (te *TokenEncryptor) Encrypt(plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", NewCryptoError("encrypt", "plaintext cannot be empty")
	}

	nonce := make([]byte, te.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", NewCryptoError("encrypt", "failed to generate nonce").WithCause(err)
	}

	sealed := te.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts base64-encoded ciphertext and returns plaintext
func (te *TokenEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	if ciphertext == "" {
		return nil, NewCryptoError("decrypt", "ciphertext cannot be empty")
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, NewCryptoError("decrypt", "invalid base64 encoding").WithCause(err)
	}

	nonceSize := te.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, NewCryptoError("decrypt", "ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := te.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, NewCryptoError("decrypt", "authentication failed").WithCause(err)
	}

	return plaintext, nil
}

// generateOrLoadSalt generates a new salt or loads the existing one from dataDir
func generateOrLoadSalt(dataDir string) ([]byte, error) {
	saltPath := filepath.Join(dataDir, saltFileName)

	if salt, err := os.ReadFile(saltPath); err == nil && len(salt) == saltSize {
		return salt, nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate random salt: %w", err)
	}

	if err := os.WriteFile(saltPath, salt, 0600); err != nil {
		return nil, fmt.Errorf("failed to save salt: %w", err)
	}

	return salt, nil
}

// getMachineID reads the machine ID from the usual locations, falling back
// to hostname and uid when none is present (macOS, containers).
func getMachineID() string {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id[:min(len(id), 32)]
			}
		}
	}

	hostname, _ := os.Hostname()
	fallback := fmt.Sprintf("%s-%d", hostname, os.Getuid())
	if len(fallback) < 8 {
		return "fallback-machine-id"
	}
	return fallback
}
