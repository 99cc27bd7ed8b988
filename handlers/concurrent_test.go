// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/anonvote/auth"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/testutil"
)

// TestConcurrentSubmissions verifies that simultaneous submissions get
// distinct sequence numbers and that each credential still counts once
func TestConcurrentSubmissions(t *testing.T) {
	st := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	submissions, _, sched := newPipeline(t, st, cfg)

	numVoters := 10
	keys := make([]string, numVoters)
	for i := 0; i < numVoters; i++ {
		key, err := auth.GeneratePrivateKey(nil, auth.PrivateKeyLength)
		if err != nil {
			t.Fatalf("Failed to generate key: %v", err)
		}
		keys[i] = key
		testutil.CreateTestCredential(t, st, fmt.Sprintf("%d", 500000+i), key, true)
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	// Every voter submits twice, all at once.
	for i := 0; i < 2*numVoters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			voter := n % numVoters

			req := testutil.MakeRequest("POST", "/submissions", models.SubmitVoteRequest{
				PublicID:      fmt.Sprintf("%d", 500000+voter),
				Secret:        keys[voter],
				Race1Rankings: []string{"Ana", "Bruno", "Carla"},
			}, nil)
			w := httptest.NewRecorder()
			submissions.SubmitVote(w, req)

			if w.Code == http.StatusAccepted {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if int(successCount.Load()) != 2*numVoters {
		t.Errorf("Expected %d accepted submissions, got %d", 2*numVoters, successCount.Load())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := sched.RunNow(ctx, ReasonRegistry)
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}

	// Triggers were coalesced, so far fewer runs than submissions.
	if runs := sched.Runs(); runs > 2*numVoters+1 {
		t.Errorf("Expected coalesced runs, got %d", runs)
	}

	subs, err := st.Submissions(ctx)
	if err != nil {
		t.Fatalf("Failed to list submissions: %v", err)
	}
	seen := make(map[int64]bool)
	for _, sub := range subs {
		if seen[sub.Seq] {
			t.Errorf("Duplicate sequence number %d", sub.Seq)
		}
		seen[sub.Seq] = true
	}

	if res.Summary.CountableVotes != numVoters {
		t.Errorf("Expected %d countable votes, got %d", numVoters, res.Summary.CountableVotes)
	}
	if res.Race1.Rows[0].Candidate != "Ana" || res.Race1.Rows[0].Points != 3*numVoters {
		t.Errorf("Unexpected race 1 leader %+v", res.Race1.Rows[0])
	}
}

// TestConcurrentRecomputeRequests verifies that overlapping waiting
// recomputes all succeed and agree on the tally
func TestConcurrentRecomputeRequests(t *testing.T) {
	st := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	_, results, _ := newPipeline(t, st, cfg)

	testutil.CreateTestCredential(t, st, "100001", "AAAABBBBCCCC", true)
	testutil.SubmitTestVote(t, st, "s1", "100001", "AAAABBBBCCCC", time.Now().UTC(), []string{"Bruno"}, nil)

	numRequests := 5
	hashes := make([]string, numRequests)
	var wg sync.WaitGroup
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			results.Recompute(w, httptest.NewRequest("POST", "/recompute?wait=true", nil))
			if w.Code != http.StatusOK {
				t.Errorf("Request %d: expected 200, got %d", n, w.Code)
				return
			}
			var resp models.RecomputeResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp.Result == nil {
				t.Errorf("Request %d: bad response %s", n, w.Body.String())
				return
			}
			hashes[n] = resp.Result.InputsHash
		}(i)
	}
	wg.Wait()

	for i := 1; i < numRequests; i++ {
		if hashes[i] != hashes[0] {
			t.Errorf("Request %d saw inputs hash %s, want %s", i, hashes[i], hashes[0])
		}
	}
}
