// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/anonvote/db"
	"github.com/danielhkuo/anonvote/models"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database types accepted by Open.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// DefaultSQLitePath is used when no SQLite URL is configured.
const DefaultSQLitePath = "anonvote.db"

// SQLStore implements Store over database/sql. Queries use $N placeholders,
// which both drivers accept.
type SQLStore struct {
	db *sql.DB

	// seqMu serializes sequence assignment within this process; the UNIQUE
	// constraint on submission.seq catches other writers.
	seqMu sync.Mutex
}

// Open connects to dbType at url and creates the schema.
func Open(dbType, url string) (*SQLStore, error) {
	driver, dsn, err := dataSource(dbType, url)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if driver == TypeSQLite {
		// One writer at a time; also keeps ":memory:" on a single database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if err := db.CreateSchema(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &SQLStore{db: conn}, nil
}

func dataSource(dbType, url string) (driver, dsn string, err error) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "", TypeSQLite:
		dsn = strings.TrimSpace(url)
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
		return TypeSQLite, dsn, nil
	case TypePostgres, "postgresql":
		if strings.TrimSpace(url) == "" {
			return "", "", fmt.Errorf("%w: DATABASE_URL is required for postgres", models.ErrConfiguration)
		}
		return TypePostgres, url, nil
	default:
		return "", "", fmt.Errorf("%w: unsupported database type %q", models.ErrConfiguration, dbType)
	}
}

// NewSQLStore wraps an open connection whose schema already exists.
func NewSQLStore(conn *sql.DB) *SQLStore {
	return &SQLStore{db: conn}
}

// DB exposes the underlying connection for health checks.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Close releases the connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Credential registry

func (s *SQLStore) Snapshot(ctx context.Context) (models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT public_id, public_key, is_active FROM credential
	`)
	if err != nil {
		return nil, models.WrapStore("snapshot", err)
	}
	defer rows.Close()

	snap := make(models.Snapshot)
	for rows.Next() {
		var id string
		var entry models.RegistryEntry
		if err := rows.Scan(&id, &entry.PublicKey, &entry.IsActive); err != nil {
			return nil, models.WrapStore("snapshot", err)
		}
		snap[models.PadPublicID(id)] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, models.WrapStore("snapshot", err)
	}
	return snap, nil
}

func (s *SQLStore) Upsert(ctx context.Context, rec models.CredentialRecord) error {
	rec.PublicID = models.PadPublicID(rec.PublicID)
	if rec.PublicID == "" {
		return fmt.Errorf("%w: public id is required", models.ErrMalformedInput)
	}
	if rec.IssuedAt.IsZero() {
		rec.IssuedAt = time.Now().UTC()
	}

	var deactivated *int64
	if !rec.IsActive {
		at := time.Now().UTC()
		if rec.DeactivatedAt != nil {
			at = *rec.DeactivatedAt
		}
		ms := at.UnixMilli()
		deactivated = &ms
	}

	// A row that is already inactive keeps its original deactivation time.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credential (public_id, public_key, is_active, issued_at, deactivated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (public_id) DO UPDATE SET
			public_key = excluded.public_key,
			is_active = excluded.is_active,
			deactivated_at = CASE
				WHEN excluded.is_active THEN NULL
				WHEN credential.deactivated_at IS NOT NULL THEN credential.deactivated_at
				ELSE excluded.deactivated_at
			END
	`, rec.PublicID, rec.PublicKey, rec.IsActive, rec.IssuedAt.UnixMilli(), deactivated)
	return models.WrapStore("upsert credential", err)
}

// Credentials lists every registry row ordered by public id.
func (s *SQLStore) Credentials(ctx context.Context) ([]models.CredentialRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT public_id, public_key, is_active, issued_at, deactivated_at
		FROM credential
		ORDER BY public_id
	`)
	if err != nil {
		return nil, models.WrapStore("list credentials", err)
	}
	defer rows.Close()

	var out []models.CredentialRecord
	for rows.Next() {
		var rec models.CredentialRecord
		var issued int64
		var deactivated sql.NullInt64
		if err := rows.Scan(&rec.PublicID, &rec.PublicKey, &rec.IsActive, &issued, &deactivated); err != nil {
			return nil, models.WrapStore("list credentials", err)
		}
		rec.IssuedAt = fromMillis(issued)
		if deactivated.Valid {
			t := fromMillis(deactivated.Int64)
			rec.DeactivatedAt = &t
		}
		out = append(out, rec)
	}
	return out, models.WrapStore("list credentials", rows.Err())
}

// Issuance log

func (s *SQLStore) Current(ctx context.Context, email string) (models.IssuanceRecord, error) {
	var rec models.IssuanceRecord
	var issued int64
	err := s.db.QueryRowContext(ctx, `
		SELECT email, generation, public_id, issued_at, delivered, production
		FROM issuance
		WHERE email = $1
		ORDER BY generation DESC
		LIMIT 1
	`, normalizeEmail(email)).Scan(&rec.Email, &rec.Generation, &rec.PublicID, &issued, &rec.Delivered, &rec.Production)
	if errors.Is(err, sql.ErrNoRows) {
		return models.IssuanceRecord{}, ErrNotFound
	}
	if err != nil {
		return models.IssuanceRecord{}, models.WrapStore("current issuance", err)
	}
	rec.IssuedAt = fromMillis(issued)
	return rec, nil
}

func (s *SQLStore) Record(ctx context.Context, rec models.IssuanceRecord) error {
	if rec.IssuedAt.IsZero() {
		rec.IssuedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issuance (email, generation, public_id, issued_at, delivered, production)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, normalizeEmail(rec.Email), rec.Generation, models.PadPublicID(rec.PublicID),
		rec.IssuedAt.UnixMilli(), rec.Delivered, rec.Production)
	return models.WrapStore("record issuance", err)
}

func (s *SQLStore) Issuances(ctx context.Context) ([]models.IssuanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, generation, public_id, issued_at, delivered, production
		FROM issuance
		ORDER BY issued_at, email, generation
	`)
	if err != nil {
		return nil, models.WrapStore("list issuances", err)
	}
	defer rows.Close()

	var out []models.IssuanceRecord
	for rows.Next() {
		var rec models.IssuanceRecord
		var issued int64
		if err := rows.Scan(&rec.Email, &rec.Generation, &rec.PublicID, &issued, &rec.Delivered, &rec.Production); err != nil {
			return nil, models.WrapStore("list issuances", err)
		}
		rec.IssuedAt = fromMillis(issued)
		out = append(out, rec)
	}
	return out, models.WrapStore("list issuances", rows.Err())
}

// Submissions

func (s *SQLStore) AppendSubmission(ctx context.Context, sub *models.VoteSubmission) error {
	race1, err := json.Marshal(nonNil(sub.Race1Rankings))
	if err != nil {
		return fmt.Errorf("encode race 1: %w", err)
	}
	race2, err := json.Marshal(nonNil(sub.Race2Selections))
	if err != nil {
		return fmt.Errorf("encode race 2: %w", err)
	}
	if sub.Timestamp.IsZero() {
		sub.Timestamp = time.Now().UTC()
	}

	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.WrapStore("append submission", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM submission`).Scan(&seq); err != nil {
		return models.WrapStore("append submission", err)
	}
	seq++

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submission (id, seq, public_id, secret, secret_digested, submitted_at, race_1, race_2)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sub.ID, seq, sub.PublicID, sub.SubmittedSecret, sub.SecretDigested,
		sub.Timestamp.UnixMilli(), string(race1), string(race2))
	if err != nil {
		return models.WrapStore("append submission", err)
	}
	if err := tx.Commit(); err != nil {
		return models.WrapStore("append submission", err)
	}

	sub.Seq = seq
	return nil
}

func (s *SQLStore) Submissions(ctx context.Context) ([]models.VoteSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, public_id, secret, secret_digested, submitted_at, race_1, race_2
		FROM submission
		ORDER BY submitted_at, seq
	`)
	if err != nil {
		return nil, models.WrapStore("list submissions", err)
	}
	defer rows.Close()

	var out []models.VoteSubmission
	for rows.Next() {
		var sub models.VoteSubmission
		var ts int64
		var race1, race2 string
		if err := rows.Scan(&sub.ID, &sub.Seq, &sub.PublicID, &sub.SubmittedSecret, &sub.SecretDigested, &ts, &race1, &race2); err != nil {
			return nil, models.WrapStore("list submissions", err)
		}
		sub.Timestamp = fromMillis(ts)
		if err := json.Unmarshal([]byte(race1), &sub.Race1Rankings); err != nil {
			return nil, fmt.Errorf("decode race 1 of %s: %w", sub.ID, err)
		}
		if err := json.Unmarshal([]byte(race2), &sub.Race2Selections); err != nil {
			return nil, fmt.Errorf("decode race 2 of %s: %w", sub.ID, err)
		}
		out = append(out, sub)
	}
	return out, models.WrapStore("list submissions", rows.Err())
}

func (s *SQLStore) ScrubSecret(ctx context.Context, submissionID, publicKey string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE submission SET secret = $1, secret_digested = $2 WHERE id = $3
	`, publicKey, true, submissionID)
	if err != nil {
		return models.WrapStore("scrub secret", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.WrapStore("scrub secret", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Results

func (s *SQLStore) WriteLedger(ctx context.Context, runID string, votes []models.ValidatedVote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.WrapStore("write ledger", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM validated_vote`); err != nil {
		return models.WrapStore("write ledger", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO validated_vote (
			submission_id, run_id, position, submitted_at, public_id, recomputed_public_key,
			credential_status, content_status, sequence_number, final_status, race_1, race_2
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`)
	if err != nil {
		return models.WrapStore("write ledger", err)
	}
	defer stmt.Close()

	for i, v := range votes {
		race1, err := json.Marshal(nonNil(v.Race1Rankings))
		if err != nil {
			return fmt.Errorf("encode race 1: %w", err)
		}
		race2, err := json.Marshal(nonNil(v.Race2Selections))
		if err != nil {
			return fmt.Errorf("encode race 2: %w", err)
		}
		_, err = stmt.ExecContext(ctx, v.SubmissionID, runID, i, v.Timestamp.UnixMilli(), v.PublicID,
			v.RecomputedPublicKey, string(v.CredentialStatus), string(v.ContentStatus),
			v.SequenceNumber, string(v.FinalStatus), string(race1), string(race2))
		if err != nil {
			return models.WrapStore("write ledger", err)
		}
	}

	return models.WrapStore("write ledger", tx.Commit())
}

func (s *SQLStore) Ledger(ctx context.Context) ([]models.ValidatedVote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT submission_id, submitted_at, public_id, recomputed_public_key,
			credential_status, content_status, sequence_number, final_status, race_1, race_2
		FROM validated_vote
		ORDER BY position
	`)
	if err != nil {
		return nil, models.WrapStore("read ledger", err)
	}
	defer rows.Close()

	out := []models.ValidatedVote{}
	for rows.Next() {
		var v models.ValidatedVote
		var ts int64
		var cred, content, final, race1, race2 string
		if err := rows.Scan(&v.SubmissionID, &ts, &v.PublicID, &v.RecomputedPublicKey,
			&cred, &content, &v.SequenceNumber, &final, &race1, &race2); err != nil {
			return nil, models.WrapStore("read ledger", err)
		}
		v.Timestamp = fromMillis(ts)
		v.CredentialStatus = models.CredentialStatus(cred)
		v.ContentStatus = models.ContentStatus(content)
		v.FinalStatus = models.FinalStatus(final)
		if err := json.Unmarshal([]byte(race1), &v.Race1Rankings); err != nil {
			return nil, fmt.Errorf("decode race 1 of %s: %w", v.SubmissionID, err)
		}
		if err := json.Unmarshal([]byte(race2), &v.Race2Selections); err != nil {
			return nil, fmt.Errorf("decode race 2 of %s: %w", v.SubmissionID, err)
		}
		out = append(out, v)
	}
	return out, models.WrapStore("read ledger", rows.Err())
}

func (s *SQLStore) WriteResult(ctx context.Context, res models.TallyResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode tally result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tally_result (run_id, computed_at, inputs_hash, payload)
		VALUES ($1, $2, $3, $4)
	`, res.RunID, res.ComputedAt.UnixMilli(), res.InputsHash, string(payload))
	return models.WrapStore("write result", err)
}

func (s *SQLStore) LatestResult(ctx context.Context) (models.TallyResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM tally_result
		ORDER BY computed_at DESC, run_id DESC
		LIMIT 1
	`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TallyResult{}, ErrNotFound
	}
	if err != nil {
		return models.TallyResult{}, models.WrapStore("latest result", err)
	}

	var res models.TallyResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return models.TallyResult{}, fmt.Errorf("decode tally result: %w", err)
	}
	return res, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
