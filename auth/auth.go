// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// PublicKeyLength is the hex length of a derived public key.
const PublicKeyLength = 64

// DerivePublicKey returns hex(HMAC-SHA256) keyed by the master secret over
// the private key. Either input empty yields "".
func DerivePublicKey(privateKey, masterSecret string) string {
	if privateKey == "" || masterSecret == "" {
		return ""
	}
	h := hmac.New(sha256.New, []byte(masterSecret))
	h.Write([]byte(privateKey))
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize canonicalizes a submitted secret before hashing: uppercase,
// then keep only A-Z. Distinct raw inputs can collapse to one value.
func Normalize(secret string) string {
	var b strings.Builder
	b.Grow(len(secret))
	for _, r := range strings.ToUpper(secret) {
		if unicode.IsSpace(r) {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// KeysEqual compares two hex keys in constant time.
func KeysEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

// IsPublicKey reports whether s looks like a derived key.
func IsPublicKey(s string) bool {
	if len(s) != PublicKeyLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// DigestText returns the lowercase hex SHA-256 of content.
func DigestText(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// DigestFile streams a file through SHA-256.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileDigest is one line of an audit manifest.
type FileDigest struct {
	Path   string
	SHA256 string
	Err    error
}

// DigestFiles hashes every path, recording per-file errors instead of
// stopping at the first one.
func DigestFiles(paths []string) []FileDigest {
	out := make([]FileDigest, 0, len(paths))
	for _, p := range paths {
		sum, err := DigestFile(p)
		out = append(out, FileDigest{Path: p, SHA256: sum, Err: err})
	}
	return out
}
