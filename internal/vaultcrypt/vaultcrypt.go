// Package vaultcrypt encrypts credential secrets at rest.
//
// The token format is hex(iv) + ":" + hex(ciphertext) using AES-256-CBC
// with a fresh random IV per call. The format is a storage contract:
// existing vaults hold tokens in exactly this shape, so it must not
// change without a data migration.
//
// Residual risk: CBC carries no integrity tag, so a tampered ciphertext
// decrypts to garbage rather than failing closed. Moving to an AEAD mode
// requires re-encrypting every stored secret and is deliberately out of
// scope here.
package vaultcrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// AES block size; the IV is always one block.
	ivLength = 16
	// AES-256 key size.
	keyLength = 32
)

// Cipher encrypts and decrypts vault secrets with a process-wide key.
// It is read-only after construction and safe for concurrent use.
type Cipher struct {
	key []byte
}

// New creates a Cipher from the configured key string.
//
// The key must be exactly 32 bytes. When legacyKeyCompat is set, shorter
// keys are right-padded with '0' and longer keys truncated instead,
// reproducing the normalization older deployments used, so their stored
// tokens still decrypt. That normalization is not a key-derivation
// function; new deployments should supply a full-length random key and
// leave compat off.
func New(key string, legacyKeyCompat bool) (*Cipher, error) {
	if key == "" {
		return nil, fmt.Errorf("encryption key is required")
	}

	if len(key) != keyLength {
		if !legacyKeyCompat {
			return nil, fmt.Errorf("encryption key must be exactly %d bytes, got %d (set the legacy key compat mode to pad/truncate)", keyLength, len(key))
		}
		if len(key) < keyLength {
			key = key + strings.Repeat("0", keyLength-len(key))
		} else {
			key = key[:keyLength]
		}
	}

	return &Cipher{key: []byte(key)}, nil
}

// Encrypt encrypts a plaintext secret into a storage token.
//
// Unlike Decrypt, failures here are hard errors: silently persisting a
// plaintext secret would break the at-rest confidentiality invariant.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a storage token back to the plaintext secret.
//
// The second return value reports whether decryption actually happened.
// Malformed tokens, undecodable hex, and bad padding all return the
// input unchanged with decrypted=false instead of an error: vaults
// migrated from older deployments may still hold plaintext rows, and a
// read must never hard-fail on them. Callers that need round-trip
// correctness must check the flag.
func (c *Cipher) Decrypt(token string) (plaintext string, decrypted bool) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return token, false
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivLength {
		return token, false
	}

	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return token, false
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return token, false
	}

	decryptedBytes := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(decryptedBytes, ciphertext)

	unpadded, err := pkcs7Unpad(decryptedBytes, aes.BlockSize)
	if err != nil {
		// Wrong key or tampered ciphertext surfaces as bad padding.
		return token, false
	}

	return string(unpadded), true
}

// pkcs7Pad appends PKCS#7 padding up to the next block boundary.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

// pkcs7Unpad strips and validates PKCS#7 padding.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, fmt.Errorf("invalid padding byte %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-padLen], nil
}
