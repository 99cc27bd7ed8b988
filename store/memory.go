// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/danielhkuo/anonvote/models"
)

// MemoryStore implements Store in process memory. It backs dry runs and
// tests; FailNext lets tests inject transient errors.
type MemoryStore struct {
	mu          sync.Mutex
	credentials map[string]models.CredentialRecord
	issuances   []models.IssuanceRecord
	submissions []models.VoteSubmission
	seq         int64
	ledger      []models.ValidatedVote
	results     []models.TallyResult

	failures int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{credentials: make(map[string]models.CredentialRecord)}
}

// FailNext makes the next n operations fail with a transient error.
func (m *MemoryStore) FailNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
}

func (m *MemoryStore) fail(op string) error {
	if m.failures > 0 {
		m.failures--
		return models.WrapStore(op, errInjected)
	}
	return nil
}

var errInjected = errors.New("injected failure")

func (m *MemoryStore) Snapshot(ctx context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("snapshot"); err != nil {
		return nil, err
	}

	snap := make(models.Snapshot, len(m.credentials))
	for id, rec := range m.credentials {
		snap[id] = models.RegistryEntry{PublicKey: rec.PublicKey, IsActive: rec.IsActive}
	}
	return snap, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, rec models.CredentialRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("upsert credential"); err != nil {
		return err
	}

	rec.PublicID = models.PadPublicID(rec.PublicID)
	if rec.IssuedAt.IsZero() {
		rec.IssuedAt = time.Now().UTC()
	}
	prev, exists := m.credentials[rec.PublicID]
	if exists {
		rec.IssuedAt = prev.IssuedAt
	}
	switch {
	case rec.IsActive:
		rec.DeactivatedAt = nil
	case exists && prev.DeactivatedAt != nil:
		rec.DeactivatedAt = prev.DeactivatedAt
	case rec.DeactivatedAt == nil:
		now := time.Now().UTC()
		rec.DeactivatedAt = &now
	}
	m.credentials[rec.PublicID] = rec
	return nil
}

// Credentials lists every registry row ordered by public id.
func (m *MemoryStore) Credentials(ctx context.Context) ([]models.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.CredentialRecord, 0, len(m.credentials))
	for _, rec := range m.credentials {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublicID < out[j].PublicID })
	return out, nil
}

func (m *MemoryStore) Current(ctx context.Context, email string) (models.IssuanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("current issuance"); err != nil {
		return models.IssuanceRecord{}, err
	}

	email = normalizeEmail(email)
	var best models.IssuanceRecord
	found := false
	for _, rec := range m.issuances {
		if rec.Email == email && (!found || rec.Generation > best.Generation) {
			best, found = rec, true
		}
	}
	if !found {
		return models.IssuanceRecord{}, ErrNotFound
	}
	return best, nil
}

func (m *MemoryStore) Record(ctx context.Context, rec models.IssuanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("record issuance"); err != nil {
		return err
	}

	rec.Email = normalizeEmail(rec.Email)
	rec.PublicID = models.PadPublicID(rec.PublicID)
	if rec.IssuedAt.IsZero() {
		rec.IssuedAt = time.Now().UTC()
	}
	m.issuances = append(m.issuances, rec)
	return nil
}

func (m *MemoryStore) Issuances(ctx context.Context) ([]models.IssuanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.IssuanceRecord(nil), m.issuances...), nil
}

func (m *MemoryStore) AppendSubmission(ctx context.Context, sub *models.VoteSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("append submission"); err != nil {
		return err
	}

	if sub.Timestamp.IsZero() {
		sub.Timestamp = time.Now().UTC()
	}
	m.seq++
	sub.Seq = m.seq

	stored := *sub
	stored.Race1Rankings = append([]string(nil), sub.Race1Rankings...)
	stored.Race2Selections = append([]string(nil), sub.Race2Selections...)
	m.submissions = append(m.submissions, stored)
	return nil
}

func (m *MemoryStore) Submissions(ctx context.Context) ([]models.VoteSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("list submissions"); err != nil {
		return nil, err
	}

	out := make([]models.VoteSubmission, len(m.submissions))
	copy(out, m.submissions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (m *MemoryStore) ScrubSecret(ctx context.Context, submissionID, publicKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("scrub secret"); err != nil {
		return err
	}

	for i := range m.submissions {
		if m.submissions[i].ID == submissionID {
			m.submissions[i].SubmittedSecret = publicKey
			m.submissions[i].SecretDigested = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) WriteLedger(ctx context.Context, runID string, votes []models.ValidatedVote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("write ledger"); err != nil {
		return err
	}
	m.ledger = append([]models.ValidatedVote{}, votes...)
	return nil
}

func (m *MemoryStore) Ledger(ctx context.Context) ([]models.ValidatedVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ValidatedVote{}, m.ledger...), nil
}

func (m *MemoryStore) WriteResult(ctx context.Context, res models.TallyResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("write result"); err != nil {
		return err
	}
	m.results = append(m.results, res)
	return nil
}

func (m *MemoryStore) LatestResult(ctx context.Context) (models.TallyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.results) == 0 {
		return models.TallyResult{}, ErrNotFound
	}
	return m.results[len(m.results)-1], nil
}

// Results returns every tally written so far, oldest first.
func (m *MemoryStore) Results() []models.TallyResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TallyResult(nil), m.results...)
}

func (m *MemoryStore) Close() error { return nil }
