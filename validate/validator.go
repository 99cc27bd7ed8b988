// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package validate

import (
	"strings"

	"github.com/danielhkuo/anonvote/auth"
	"github.com/danielhkuo/anonvote/models"
)

// RecomputeKey returns the public key a submission claims. A submission
// whose secret column was already overwritten carries the key itself.
func RecomputeKey(sub models.VoteSubmission, masterSecret string) string {
	if sub.SecretDigested {
		return sub.SubmittedSecret
	}
	return auth.DerivePublicKey(auth.Normalize(sub.SubmittedSecret), masterSecret)
}

// Classify checks a submission's credential against one registry snapshot.
// Checks run in a fixed order so a reused revoked key reports "revoked"
// rather than a generic mismatch.
func Classify(sub models.VoteSubmission, snapshot models.Snapshot, masterSecret string) (models.CredentialStatus, string) {
	key := RecomputeKey(sub, masterSecret)

	record, ok := snapshot[models.PadPublicID(sub.PublicID)]
	if !ok {
		return models.CredentialUnknownID, key
	}
	if key == "" || !auth.KeysEqual(record.PublicKey, key) {
		return models.CredentialWrongSecret, key
	}
	if !record.IsActive {
		return models.CredentialRevoked, key
	}
	return models.CredentialValid, key
}

// SanitizeNames trims each entry and drops empties. Order is preserved and
// duplicates are left for the tally to resolve.
func SanitizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.Join(strings.Fields(n), " ")
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ContentStatusOf is blank when neither race has an entry.
func ContentStatusOf(race1, race2 []string) models.ContentStatus {
	if len(race1) == 0 && len(race2) == 0 {
		return models.ContentBlank
	}
	return models.ContentNonBlank
}
