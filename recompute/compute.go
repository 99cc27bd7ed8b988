// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recompute

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/danielhkuo/anonvote/auth"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/tally"
	"github.com/danielhkuo/anonvote/validate"
)

// Race labels used in scoreboards.
const (
	Race1 = "race_1"
	Race2 = "race_2"
)

// Options are the tally settings shared by every run.
type Options struct {
	MaxRank         int
	Race1Candidates []string
	Race2Candidates []string
	Locale          string
	CutoffFraction  float64
}

// Input is everything one run reads.
type Input struct {
	Snapshot     models.Snapshot
	Submissions  []models.VoteSubmission
	MasterSecret string
	Options      Options
}

// Output is everything one run writes. Votes is set even when the tally
// step fails.
type Output struct {
	Votes  []models.ValidatedVote
	Result models.TallyResult
}

// Compute validates, deduplicates and tallies. It does no I/O and returns
// the same Output for the same Input; RunID and ComputedAt are left for
// the caller. A tally configuration error is returned alongside a
// complete ledger.
func Compute(in Input) (Output, error) {
	if in.MasterSecret == "" {
		return Output{}, fmt.Errorf("%w: master secret is required", models.ErrConfiguration)
	}

	votes := validate.ValidateAll(in.Submissions, in.Snapshot, in.MasterSecret)
	out := Output{Votes: votes}

	countable := validate.Countable(votes)
	race1 := make([][]string, len(countable))
	race2 := make([][]string, len(countable))
	for i, v := range countable {
		race1[i] = v.Race1Rankings
		race2[i] = v.Race2Selections
	}

	opts := in.Options
	borda, err := tally.Borda(race1, tally.BordaOptions{
		Race:       Race1,
		Candidates: opts.Race1Candidates,
		MaxRank:    opts.MaxRank,
		Locale:     opts.Locale,
	})
	if err != nil {
		return out, fmt.Errorf("race 1: %w", err)
	}
	plurality, err := tally.Plurality(race2, tally.PluralityOptions{
		Race:       Race2,
		Candidates: opts.Race2Candidates,
		Locale:     opts.Locale,
	})
	if err != nil {
		return out, fmt.Errorf("race 2: %w", err)
	}

	out.Result = models.TallyResult{
		Race1:      borda,
		Race2:      plurality,
		Summary:    tally.Summarize(in.Snapshot.ActiveCount(), len(countable), opts.MaxRank, len(borda.Rows), opts.CutoffFraction),
		InputsHash: inputsHash(in.Snapshot, votes, opts),
	}
	return out, nil
}

// inputsHash fingerprints a run from the snapshot and the ledger rather
// than raw submissions, so it is stable across secret scrubbing.
func inputsHash(snap models.Snapshot, votes []models.ValidatedVote, opts Options) string {
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	type registryRow struct {
		ID     string `json:"id"`
		Key    string `json:"key"`
		Active bool   `json:"active"`
	}
	registry := make([]registryRow, len(ids))
	for i, id := range ids {
		registry[i] = registryRow{id, snap[id].PublicKey, snap[id].IsActive}
	}

	payload, err := json.Marshal(struct {
		Registry []registryRow          `json:"registry"`
		Votes    []models.ValidatedVote `json:"votes"`
		Options  Options                `json:"options"`
	}{registry, votes, opts})
	if err != nil {
		return ""
	}
	return auth.DigestText(string(payload))
}
