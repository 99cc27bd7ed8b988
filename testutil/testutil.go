// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/anonvote/auth"
	"github.com/danielhkuo/anonvote/cliparse"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/store"
)

// TestMasterSecret keys every credential created by these helpers.
const TestMasterSecret = "test-master-secret"

// SetupTestStore opens a fresh in-memory SQLite store with the full schema.
// It is closed when the test ends.
func SetupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	st, err := store.Open(store.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseType:    store.TypeSQLite,
		DatabaseURL:     ":memory:",
		MasterSecret:    TestMasterSecret,
		MaxRank:         3,
		CutoffFraction:  0.5,
		Locale:          "pt-BR",
		Race1Candidates: []string{"Ana", "Bruno", "Carla"},
		Race2Candidates: []string{"Xavier", "Yara"},
	}
}

// CreateTestCredential registers publicID with the key derived from
// privateKey and returns the record.
func CreateTestCredential(t *testing.T, st store.CredentialStore, publicID, privateKey string, active bool) models.CredentialRecord {
	t.Helper()

	rec := models.CredentialRecord{
		PublicID:  publicID,
		PublicKey: auth.DerivePublicKey(auth.Normalize(privateKey), TestMasterSecret),
		IsActive:  active,
		IssuedAt:  time.Now().UTC(),
	}
	if err := st.Upsert(context.Background(), rec); err != nil {
		t.Fatalf("Failed to create test credential: %v", err)
	}
	return rec
}

// SubmitTestVote appends a submission and returns it with its sequence set.
func SubmitTestVote(t *testing.T, st store.SubmissionStore, id, publicID, secret string, at time.Time, race1, race2 []string) models.VoteSubmission {
	t.Helper()

	sub := models.VoteSubmission{
		ID:              id,
		Timestamp:       at,
		PublicID:        publicID,
		SubmittedSecret: secret,
		Race1Rankings:   race1,
		Race2Selections: race2,
	}
	if err := st.AppendSubmission(context.Background(), &sub); err != nil {
		t.Fatalf("Failed to create test submission: %v", err)
	}
	return sub
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
