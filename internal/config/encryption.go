// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Webhook auth tokens may be stored encrypted so config files and env dumps
// never expose them in the clear. Format: "enc:" + base64(nonce || ct || tag),
// AES-256-GCM with the key derived from alert.secret_key via HKDF-SHA256.
const (
	encryptedTokenPrefix = "enc:"

	credentialSalt = "sentinel-channel-credentials"
	credentialInfo = "credential-encryption-v1"

	aesKeySize   = 32
	gcmNonceSize = 12
)

var (
	// ErrEmptySecret is returned when no secret key is provided.
	ErrEmptySecret = errors.New("secret key cannot be empty")

	// ErrEmptyPlaintext is returned when attempting to encrypt empty data.
	ErrEmptyPlaintext = errors.New("plaintext cannot be empty")

	// ErrDecryptionFailed is returned for invalid or tampered ciphertext.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or authentication tag")

	// ErrCiphertextTooShort is returned when the payload cannot hold a nonce
	// and tag.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// CredentialEncryptor encrypts and decrypts channel credentials with
// AES-256-GCM. The key is derived from the configured secret, never stored.
type CredentialEncryptor struct {
	cipher cipher.AEAD
}

// NewCredentialEncryptor derives the AES key from the secret and prepares the
// GCM cipher.
func NewCredentialEncryptor(secret string) (*CredentialEncryptor, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, aesKeySize)
	r := hkdf.New(sha256.New, []byte(secret), []byte(credentialSalt), []byte(credentialInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &CredentialEncryptor{cipher: gcm}, nil
}

// Encrypt returns the prefixed, base64-encoded ciphertext for a credential.
func (e *CredentialEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ct := e.cipher.Seal(nonce, nonce, []byte(plaintext), nil)
	return encryptedTokenPrefix + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt. Input without the "enc:" prefix is returned
// unchanged, so plaintext tokens keep working.
func (e *CredentialEncryptor) Decrypt(token string) (string, error) {
	if !isEncrypted(token) {
		return token, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, encryptedTokenPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %s", ErrDecryptionFailed, err.Error())
	}
	if len(data) < gcmNonceSize+1+e.cipher.Overhead() {
		return "", ErrCiphertextTooShort
	}

	plaintext, err := e.cipher.Open(nil, data[:gcmNonceSize], data[gcmNonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// MaskCredential returns a display-safe form showing only the last 4
// characters.
func MaskCredential(credential string) string {
	if credential == "" {
		return ""
	}
	if len(credential) <= 4 {
		return "****"
	}
	return "****..." + credential[len(credential)-4:]
}

func isEncrypted(token string) bool {
	return strings.HasPrefix(token, encryptedTokenPrefix)
}
