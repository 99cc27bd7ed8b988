// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/testutil"
)

type noopRecomputer struct{}

func (noopRecomputer) Trigger(string) {}

func (noopRecomputer) RunNow(context.Context, string) (models.TallyResult, error) {
	return models.TallyResult{RunID: "noop"}, nil
}

func TestStaticEndpoints(t *testing.T) {
	mux := NewRouter(testutil.SetupTestStore(t), noopRecomputer{})

	for path, body := range map[string]string{
		"/health": "OK",
		"/":       "anonvote API v1",
	} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, testutil.MakeRequest(http.MethodGet, path, nil, nil))
			testutil.AssertStatus(t, w, http.StatusOK)
			if w.Body.String() != body {
				t.Errorf("body = %q, want %q", w.Body.String(), body)
			}
		})
	}
}

func TestEveryRouteIsRegistered(t *testing.T) {
	mux := NewRouter(testutil.SetupTestStore(t), noopRecomputer{})

	// Handlers may answer 400 or 404 on an empty store; 405 means no route.
	routes := []string{
		"POST /submissions",
		"POST /recompute",
		"GET /results",
		"GET /ledger",
		"GET /ledger/123456",
	}
	for _, route := range routes {
		method, path, _ := strings.Cut(route, " ")
		t.Run(route, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(method, path, nil))
			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("%s returned 405", route)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	st := testutil.SetupTestStore(t)
	mux := NewRouter(st, noopRecomputer{})

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"GET to submissions", "GET", "/submissions", http.StatusMethodNotAllowed},
		{"DELETE to ledger", "DELETE", "/ledger", http.StatusMethodNotAllowed},
		{"PUT to recompute", "PUT", "/recompute", http.StatusMethodNotAllowed},
		{"results before any run", "GET", "/results", http.StatusNotFound},
		{"asynchronous recompute", "POST", "/recompute", http.StatusAccepted},
		{"waiting recompute", "POST", "/recompute?wait=true", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	st := testutil.SetupTestStore(t)
	votes := []models.ValidatedVote{
		{SubmissionID: "a", PublicID: "054321", Timestamp: time.Unix(100, 0).UTC(), FinalStatus: models.FinalCountable},
		{SubmissionID: "b", PublicID: "111111", Timestamp: time.Unix(101, 0).UTC(), FinalStatus: models.FinalBlank},
	}
	if err := st.WriteLedger(context.Background(), "run-1", votes); err != nil {
		t.Fatalf("Failed to write ledger: %v", err)
	}

	mux := NewRouter(st, noopRecomputer{})

	req := httptest.NewRequest("GET", "/ledger/54321", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var got []models.ValidatedVote
	testutil.AssertJSON(t, w, &got)
	if len(got) != 1 || got[0].SubmissionID != "a" {
		t.Errorf("Expected only row 'a' for public id 054321, got %+v", got)
	}
}
