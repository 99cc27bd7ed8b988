// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"

	"github.com/danielhkuo/anonvote/models"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// CredentialStore is the persisted credential registry.
type CredentialStore interface {
	// Snapshot returns every registry row keyed by padded public id.
	Snapshot(ctx context.Context) (models.Snapshot, error)
	// Upsert creates or updates one row. Rows are never deleted.
	Upsert(ctx context.Context, rec models.CredentialRecord) error
}

// IssuanceLog tracks which roster identity holds which public id.
type IssuanceLog interface {
	Current(ctx context.Context, email string) (models.IssuanceRecord, error)
	Record(ctx context.Context, rec models.IssuanceRecord) error
	Issuances(ctx context.Context) ([]models.IssuanceRecord, error)
}

// SubmissionStore holds raw rows from the submission funnel.
type SubmissionStore interface {
	// AppendSubmission assigns the ingestion sequence number to sub.
	AppendSubmission(ctx context.Context, sub *models.VoteSubmission) error
	// Submissions lists rows in arrival order.
	Submissions(ctx context.Context) ([]models.VoteSubmission, error)
	// ScrubSecret replaces a raw secret with its recomputed public key.
	ScrubSecret(ctx context.Context, submissionID, publicKey string) error
}

// ResultWriter receives the output of a recompute run.
type ResultWriter interface {
	// WriteLedger replaces the whole validated-vote ledger.
	WriteLedger(ctx context.Context, runID string, votes []models.ValidatedVote) error
	WriteResult(ctx context.Context, res models.TallyResult) error
}

// ResultReader serves the latest recompute output.
type ResultReader interface {
	Ledger(ctx context.Context) ([]models.ValidatedVote, error)
	LatestResult(ctx context.Context) (models.TallyResult, error)
}

// Store is everything a server process needs.
type Store interface {
	CredentialStore
	IssuanceLog
	SubmissionStore
	ResultWriter
	ResultReader
	Close() error
}
