// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth holds the credential hash primitives and secure randomness.

# Public Keys

Public keys are HMAC-SHA256 digests keyed by the master secret over the
private key, hex encoded:

	pub := auth.DerivePublicKey(privateKey, masterSecret)

Either input empty returns "" instead of failing, so a blank submission
simply never matches a registry row.

# Normalization

Submitted secrets are canonicalized before hashing:

	pub := auth.DerivePublicKey(auth.Normalize(submitted), masterSecret)

Normalize uppercases and keeps only A-Z. "abcd-efgh ijkl" and
"ABCDEFGHIJKL" derive the same key. This widens what a voter may type and
narrows the effective keyspace; the behavior is kept as-is pending review.

# Random Material

All randomness comes from crypto/rand unless a reader is injected for tests:

	id, err := auth.GeneratePublicID(nil)        // "100000".."999999"
	key, err := auth.GeneratePrivateKey(nil, 12) // A-Z only
	err := auth.Shuffle(nil, roster)             // Fisher-Yates

# Digests

DigestText and DigestFile expose plain SHA-256 for audit manifests.
*/
package auth
