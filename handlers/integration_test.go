// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/anonvote/cliparse"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/recompute"
	"github.com/danielhkuo/anonvote/store"
	"github.com/danielhkuo/anonvote/testutil"
)

// newPipeline wires the handlers to a real engine and scheduler.
func newPipeline(t *testing.T, st store.Store, cfg cliparse.Config) (*SubmissionHandler, *ResultsHandler, *recompute.Scheduler) {
	t.Helper()

	engine := &recompute.Engine{
		Credentials:  st,
		Submissions:  st,
		Results:      st,
		MasterSecret: cfg.MasterSecret,
		Options: recompute.Options{
			MaxRank:         cfg.MaxRank,
			Race1Candidates: cfg.Race1Candidates,
			Race2Candidates: cfg.Race2Candidates,
			Locale:          cfg.Locale,
			CutoffFraction:  cfg.CutoffFraction,
		},
		RetryInterval: time.Millisecond,
	}
	sched := recompute.NewScheduler(context.Background(), engine, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sched.Wait(ctx)
	})
	return NewSubmissionHandler(st, sched), NewResultsHandler(st, sched), sched
}

// TestFullElectionWorkflow tests the complete end-to-end workflow:
// 1. Register credentials
// 2. Voters submit through the funnel (valid, duplicate, wrong secret, blank)
// 3. Recompute and wait
// 4. Verify the tally and the ledger
// 5. Revoke a credential and verify the tally follows
func TestFullElectionWorkflow(t *testing.T) {
	st := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	submissions, results, _ := newPipeline(t, st, cfg)

	// Step 1: Register credentials
	testutil.CreateTestCredential(t, st, "100001", "AAAABBBBCCCC", true)
	testutil.CreateTestCredential(t, st, "100002", "DDDDEEEEFFFF", true)
	testutil.CreateTestCredential(t, st, "100003", "GGGGHHHHIIII", true)

	// Step 2: Submit
	t0 := time.Date(2025, 12, 9, 9, 0, 0, 0, time.UTC)
	ballots := []models.SubmitVoteRequest{
		{PublicID: "100001", Secret: "AAAABBBBCCCC", Race1Rankings: []string{"Ana", "Bruno", "Carla"}, Race2Text: "Xavier"},
		{PublicID: "100002", Secret: "dddd-eeee-ffff", Race1Rankings: []string{"Bruno", "Ana"}, Race2Text: "Yara, Xavier"},
		{PublicID: "100001", Secret: "AAAABBBBCCCC", Race1Rankings: []string{"Carla"}},
		{PublicID: "100003", Secret: "ZZZZZZZZZZZZ", Race1Rankings: []string{"Ana"}},
		{PublicID: "100003", Secret: "GGGGHHHHIIII"},
		{PublicID: "100003", Secret: "GGGGHHHHIIII", Race1Rankings: []string{"Carla", "Bruno", "Ana"}},
	}
	clock := t0
	submissions.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ids := make([]string, len(ballots))
	for i, b := range ballots {
		w := httptest.NewRecorder()
		submissions.SubmitVote(w, testutil.MakeRequest("POST", "/submissions", b, nil))
		if w.Code != http.StatusAccepted {
			t.Fatalf("Step 2 - submission %d failed: %d - %s", i, w.Code, w.Body.String())
		}
		var resp models.SubmitVoteResponse
		testutil.AssertJSON(t, w, &resp)
		ids[i] = resp.SubmissionID
	}

	// Step 3: Recompute and wait
	w := httptest.NewRecorder()
	results.Recompute(w, httptest.NewRequest("POST", "/recompute?wait=true", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - recompute failed: %d - %s", w.Code, w.Body.String())
	}
	var rec models.RecomputeResponse
	testutil.AssertJSON(t, w, &rec)
	if rec.Result == nil {
		t.Fatal("Step 3 - expected a result")
	}

	// Step 4: Verify the tally
	res := *rec.Result
	wantRace1 := []struct {
		name   string
		points int
	}{{"Bruno", 7}, {"Ana", 6}, {"Carla", 4}}
	if len(res.Race1.Rows) != len(wantRace1) {
		t.Fatalf("Step 4 - race 1 rows = %+v", res.Race1.Rows)
	}
	for i, want := range wantRace1 {
		row := res.Race1.Rows[i]
		if row.Candidate != want.name || row.Points != want.points || row.Position != i+1 {
			t.Errorf("Step 4 - race 1 row %d = %+v, want %s with %d", i, row, want.name, want.points)
		}
	}
	if len(res.Race2.Rows) != 2 || res.Race2.Rows[0].Candidate != "Xavier" || res.Race2.Rows[0].Points != 2 {
		t.Errorf("Step 4 - race 2 rows = %+v", res.Race2.Rows)
	}
	if res.Summary.ActiveCredentials != 3 || res.Summary.CountableVotes != 3 {
		t.Errorf("Step 4 - summary = %+v", res.Summary)
	}
	if res.Summary.Cutoff != 4.5 {
		t.Errorf("Step 4 - cutoff = %v, want 4.5", res.Summary.Cutoff)
	}

	// The stored tally is what GET /results serves.
	w = httptest.NewRecorder()
	results.GetResults(w, httptest.NewRequest("GET", "/results", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var served models.TallyResult
	testutil.AssertJSON(t, w, &served)
	if served.RunID != res.RunID {
		t.Errorf("Step 4 - served run %s, want %s", served.RunID, res.RunID)
	}

	// Ledger: one row per submission, no secrets.
	w = httptest.NewRecorder()
	results.GetLedger(w, httptest.NewRequest("GET", "/ledger", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var ledger []models.ValidatedVote
	testutil.AssertJSON(t, w, &ledger)

	wantStatus := map[string]models.FinalStatus{
		ids[0]: models.FinalCountable,
		ids[1]: models.FinalCountable,
		ids[2]: models.FinalDuplicate,
		ids[3]: models.CredentialFailure(models.CredentialWrongSecret),
		ids[4]: models.FinalBlank,
		ids[5]: models.FinalCountable,
	}
	if len(ledger) != len(ballots) {
		t.Fatalf("Step 4 - ledger has %d rows, want %d", len(ledger), len(ballots))
	}
	for _, v := range ledger {
		if v.FinalStatus != wantStatus[v.SubmissionID] {
			t.Errorf("Step 4 - %s final status = %s, want %s", v.SubmissionID, v.FinalStatus, wantStatus[v.SubmissionID])
		}
	}

	// Raw secrets were replaced by their public keys.
	subs, err := st.Submissions(context.Background())
	if err != nil {
		t.Fatalf("Step 4 - list submissions: %v", err)
	}
	for _, sub := range subs {
		if !sub.SecretDigested || sub.SubmittedSecret == "GGGGHHHHIIII" {
			t.Errorf("Step 4 - submission %s still holds a raw secret", sub.ID)
		}
	}

	// Step 5: Revoke 100002 and recompute
	testutil.CreateTestCredential(t, st, "100002", "DDDDEEEEFFFF", false)
	w = httptest.NewRecorder()
	results.Recompute(w, httptest.NewRequest("POST", "/recompute?wait=true", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	rec = models.RecomputeResponse{}
	testutil.AssertJSON(t, w, &rec)

	if rec.Result.Summary.ActiveCredentials != 2 || rec.Result.Summary.CountableVotes != 2 {
		t.Errorf("Step 5 - summary after revocation = %+v", rec.Result.Summary)
	}
	if rec.Result.InputsHash == res.InputsHash {
		t.Error("Step 5 - inputs hash did not change after revocation")
	}
}

func TestWorkflow_TallyMisconfiguration(t *testing.T) {
	st := testutil.SetupTestStore(t)
	cfg := testutil.GetTestConfig()
	cfg.Race1Candidates = []string{"Ana", "Ana"}
	submissions, results, _ := newPipeline(t, st, cfg)

	testutil.CreateTestCredential(t, st, "100001", "AAAABBBBCCCC", true)
	w := httptest.NewRecorder()
	submissions.SubmitVote(w, testutil.MakeRequest("POST", "/submissions", models.SubmitVoteRequest{
		PublicID: "100001", Secret: "AAAABBBBCCCC", Race1Rankings: []string{"Ana"},
	}, nil))
	testutil.AssertStatus(t, w, http.StatusAccepted)

	w = httptest.NewRecorder()
	results.Recompute(w, httptest.NewRequest("POST", "/recompute?wait=true", nil))
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)

	// The ledger still stands; no tally was published.
	w = httptest.NewRecorder()
	results.GetLedger(w, httptest.NewRequest("GET", "/ledger", nil))
	var ledger []models.ValidatedVote
	testutil.AssertJSON(t, w, &ledger)
	if len(ledger) != 1 || ledger[0].FinalStatus != models.FinalCountable {
		t.Errorf("Expected one countable ledger row, got %+v", ledger)
	}

	w = httptest.NewRecorder()
	results.GetResults(w, httptest.NewRequest("GET", "/results", nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
