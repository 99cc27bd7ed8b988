// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	// PrivateKeyLength is the number of characters in a private key.
	PrivateKeyLength = 12

	// PrivateKeyAlphabet only holds letters so a key survives Normalize.
	PrivateKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	publicIDMin  = 100000
	publicIDSpan = 900000
)

// randIntn draws uniformly from [0, n) using r.
func randIntn(r io.Reader, n int) (int, error) {
	if r == nil {
		r = rand.Reader
	}
	v, err := rand.Int(r, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random source: %w", err)
	}
	return int(v.Int64()), nil
}

// GeneratePublicID draws a 6-digit id in [100000, 999999].
func GeneratePublicID(r io.Reader) (string, error) {
	n, err := randIntn(r, publicIDSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", publicIDMin+n), nil
}

// GeneratePrivateKey draws length characters from PrivateKeyAlphabet.
func GeneratePrivateKey(r io.Reader, length int) (string, error) {
	if length <= 0 {
		length = PrivateKeyLength
	}
	b := make([]byte, length)
	for i := range b {
		n, err := randIntn(r, len(PrivateKeyAlphabet))
		if err != nil {
			return "", err
		}
		b[i] = PrivateKeyAlphabet[n]
	}
	return string(b), nil
}

// Shuffle permutes s in place with a Fisher-Yates walk driven by r.
func Shuffle[T any](r io.Reader, s []T) error {
	for i := len(s) - 1; i > 0; i-- {
		j, err := randIntn(r, i+1)
		if err != nil {
			return err
		}
		s[i], s[j] = s[j], s[i]
	}
	return nil
}
