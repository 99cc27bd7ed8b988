// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db owns the SQL schema shared by every store backend.

store.Open calls CreateSchema right after connecting:

	if err := db.CreateSchema(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

Every statement is CREATE ... IF NOT EXISTS, so reopening an existing
database is a no-op. One DDL script serves SQLite and PostgreSQL.

# Tables

  - credential: Public id to public key registry, with revocation flag
  - issuance: Which roster identity holds which public id
  - submission: Raw rows from the submission funnel
  - validated_vote: Per-submission ledger from the latest recompute
  - tally_result: JSON tally payload per recompute run

The issuance table is the only place identities appear. Nothing joins it
with submission or validated_vote.
*/
package db
