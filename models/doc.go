// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the data model, status vocabulary, and error kinds.

# Credentials

  - Credential: public_id, private_key (never serialized), public_key
  - CredentialRecord: persisted registry row with is_active
  - Snapshot: public_id → {public_key, is_active}, read once per run
  - IssuanceRecord: roster identity → current public_id (operator side only)

# Votes

  - VoteSubmission: one funnel row
  - ValidatedVote: the ledger row derived from one submission

Credential statuses, in classification priority:

	CredentialUnknownID   = "invalid: unknown id"
	CredentialWrongSecret = "invalid: wrong secret"
	CredentialRevoked     = "invalid: credential revoked"
	CredentialValid       = "valid"

Final statuses:

	FinalCountable = "valid-countable"
	FinalBlank     = "invalid-content:blank"
	FinalDuplicate = "invalid-content:duplicate"
	CredentialFailure(s) → "invalid-credential:<reason>"

# Tally

  - Scoreboard: ordered rows for one race, Placeholder when nothing counted
  - Summary: active credentials, countable votes, max rank, cutoff
  - TallyResult: both races plus the summary

# Errors

	ErrConfiguration      missing master secret
	ErrMalformedInput     bad roster entry
	ErrTallyConfiguration bad race columns or candidate lists
	ErrTransientStore     matched by every *StoreError
*/
package models
