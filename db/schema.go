// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is shared by SQLite and PostgreSQL, so timestamps are stored as
// unix milliseconds and list columns as JSON text.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Tables lists every table in creation order.
var Tables = []string{"credential", "issuance", "submission", "validated_vote", "tally_result"}

const schema = `
-- Credential registry
CREATE TABLE IF NOT EXISTS credential (
    public_id TEXT PRIMARY KEY,
    public_key TEXT NOT NULL,
    is_active BOOLEAN NOT NULL,
    issued_at BIGINT NOT NULL,
    deactivated_at BIGINT
);

CREATE INDEX IF NOT EXISTS idx_credential_active ON credential(is_active);

-- Issuance ledger (identity -> public id). Never joined with votes.
CREATE TABLE IF NOT EXISTS issuance (
    email TEXT NOT NULL,
    generation INTEGER NOT NULL,
    public_id TEXT NOT NULL,
    issued_at BIGINT NOT NULL,
    delivered BOOLEAN NOT NULL,
    production BOOLEAN NOT NULL,
    PRIMARY KEY (email, generation)
);

-- Submission funnel
CREATE TABLE IF NOT EXISTS submission (
    id TEXT PRIMARY KEY,
    seq BIGINT NOT NULL UNIQUE,
    public_id TEXT NOT NULL,
    secret TEXT NOT NULL,
    secret_digested BOOLEAN NOT NULL,
    submitted_at BIGINT NOT NULL,
    race_1 TEXT NOT NULL,
    race_2 TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submission_arrival ON submission(submitted_at, seq);

-- Validated-vote ledger, overwritten by every recompute
CREATE TABLE IF NOT EXISTS validated_vote (
    submission_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    submitted_at BIGINT NOT NULL,
    public_id TEXT NOT NULL,
    recomputed_public_key TEXT NOT NULL,
    credential_status TEXT NOT NULL,
    content_status TEXT NOT NULL,
    sequence_number INTEGER NOT NULL,
    final_status TEXT NOT NULL,
    race_1 TEXT NOT NULL,
    race_2 TEXT NOT NULL
);

-- Tally results, one row per recompute run
CREATE TABLE IF NOT EXISTS tally_result (
    run_id TEXT PRIMARY KEY,
    computed_at BIGINT NOT NULL,
    inputs_hash TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tally_result_computed_at ON tally_result(computed_at);
`
