// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package validate

import (
	"sort"

	"github.com/danielhkuo/anonvote/models"
)

// Entry is a submission paired with its credential classification.
type Entry struct {
	Submission    models.VoteSubmission
	Credential    models.CredentialStatus
	RecomputedKey string
}

// Deduplicate resolves the final status of arrival-ordered entries that
// share one public id. Only the first valid, non-blank entry counts. After
// it, blanks stay blank and everything else is a duplicate, including
// entries whose credential failed.
func Deduplicate(entries []Entry) []models.ValidatedVote {
	out := make([]models.ValidatedVote, 0, len(entries))
	seq := 0
	counted := false

	for _, e := range entries {
		race1 := SanitizeNames(e.Submission.Race1Rankings)
		race2 := SanitizeNames(e.Submission.Race2Selections)
		content := ContentStatusOf(race1, race2)

		vote := models.ValidatedVote{
			SubmissionID:        e.Submission.ID,
			Timestamp:           e.Submission.Timestamp,
			PublicID:            models.PadPublicID(e.Submission.PublicID),
			RecomputedPublicKey: e.RecomputedKey,
			CredentialStatus:    e.Credential,
			ContentStatus:       content,
			Race1Rankings:       race1,
			Race2Selections:     race2,
		}

		if e.Credential.Valid() && content == models.ContentNonBlank {
			seq++
			vote.SequenceNumber = seq
		}

		switch {
		case content == models.ContentBlank && (counted || e.Credential.Valid()):
			vote.FinalStatus = models.FinalBlank
		case counted:
			vote.FinalStatus = models.FinalDuplicate
		case !e.Credential.Valid():
			vote.FinalStatus = models.CredentialFailure(e.Credential)
		default:
			vote.FinalStatus = models.FinalCountable
			counted = true
		}

		out = append(out, vote)
	}

	return out
}

// SortArrival orders submissions by timestamp, then by ingestion sequence.
func SortArrival(subs []models.VoteSubmission) {
	sort.SliceStable(subs, func(i, j int) bool {
		a, b := subs[i], subs[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Seq < b.Seq
	})
}

// ValidateAll classifies every submission against one snapshot and applies
// per-id deduplication. The result has one vote per submission, in arrival
// order.
func ValidateAll(subs []models.VoteSubmission, snapshot models.Snapshot, masterSecret string) []models.ValidatedVote {
	ordered := make([]models.VoteSubmission, len(subs))
	copy(ordered, subs)
	SortArrival(ordered)

	groups := make(map[string][]int)
	entries := make([]Entry, len(ordered))
	for i, sub := range ordered {
		status, key := Classify(sub, snapshot, masterSecret)
		entries[i] = Entry{Submission: sub, Credential: status, RecomputedKey: key}
		id := models.PadPublicID(sub.PublicID)
		groups[id] = append(groups[id], i)
	}

	votes := make([]models.ValidatedVote, len(ordered))
	for _, idx := range groups {
		group := make([]Entry, len(idx))
		for k, i := range idx {
			group[k] = entries[i]
		}
		for k, v := range Deduplicate(group) {
			votes[idx[k]] = v
		}
	}
	return votes
}

// Countable filters votes down to those that enter the tally.
func Countable(votes []models.ValidatedVote) []models.ValidatedVote {
	out := make([]models.ValidatedVote, 0, len(votes))
	for _, v := range votes {
		if v.FinalStatus.Countable() {
			out = append(out, v)
		}
	}
	return out
}
