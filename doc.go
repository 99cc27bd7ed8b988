// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the anonvote command.

anonvote issues anonymous voter credentials, collects ballots from an
external submission funnel and produces an auditable tally: a positional
(Borda) race and a plurality race. A voter's public id and private key are
never linked to their identity in the registry; only the operator's
issuance log knows who holds which id.

# Commands

	anonvote issue ROSTER [--resend] [--only EMAIL] [--deliveries FILE]
	anonvote reissue EMAIL --roster ROSTER
	anonvote import registry FILE
	anonvote import submissions FILE [--race1 START:END] [--race2 COL] [--tz ZONE]
	anonvote recompute
	anonvote serve
	anonvote audit [FILE...]

# Configuration

MASTER_SECRET is required by every command that derives or checks keys.
Everything else has a default; see package cliparse:

	MASTER_SECRET=... anonvote serve -p 3318
	DATABASE_TYPE=postgres DATABASE_URL=postgres://... anonvote recompute

# Architecture

  - auth: HMAC key derivation, normalization, secure randomness, digests
  - issuer: roster validation, issuance, reissue, delivery notifiers
  - validate: credential classification and first-valid-vote deduplication
  - tally: Borda and plurality scoreboards, summary
  - recompute: the validate-then-tally run, retries and the scheduler
  - ingest: funnel schema binding, registry and roster CSV parsing
  - store: SQL (SQLite, PostgreSQL) and in-memory stores, snapshot cache
  - handlers, router, middleware: the HTTP surface
  - models: shared types and error kinds
  - db: schema creation
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
