// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"sort"

	"github.com/danielhkuo/anonvote/models"
)

// PluralityOptions configures a selection race.
type PluralityOptions struct {
	Race       string
	Candidates []string
	Locale     string
}

// Plurality gives each distinct name on a ballot one vote.
func Plurality(ballots [][]string, opts PluralityOptions) (models.Scoreboard, error) {
	universe, err := candidateSet(opts.Candidates)
	if err != nil {
		return models.Scoreboard{}, err
	}

	votes := make(map[string]int)
	counted := 0
	for _, b := range ballots {
		f := filter(b, universe)
		if len(f) == 0 {
			continue
		}
		counted++
		for _, name := range f {
			votes[name]++
		}
	}
	if counted == 0 {
		return placeholder(opts.Race, models.MethodPlurality), nil
	}
	for name := range universe {
		if _, ok := votes[name]; !ok {
			votes[name] = 0
		}
	}

	rows := make([]models.ScoreRow, 0, len(votes))
	for name, v := range votes {
		rows = append(rows, models.ScoreRow{Candidate: name, Points: v})
	}

	coll := newCollator(opts.Locale)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return nameLess(coll, rows[i].Candidate, rows[j].Candidate)
	})
	for i := range rows {
		rows[i].Position = i + 1
	}

	return models.Scoreboard{
		Race:   opts.Race,
		Method: models.MethodPlurality,
		Rows:   rows,
	}, nil
}
