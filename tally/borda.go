// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"fmt"
	"sort"

	"github.com/danielhkuo/anonvote/models"
)

// BordaOptions configures a positional race.
type BordaOptions struct {
	Race       string
	Candidates []string // empty: infer from ballots
	MaxRank    int      // 0: universe size
	Locale     string
}

type bordaStats struct {
	name       string
	points     int
	rankCounts []int
}

// Borda scores ranked ballots. It only fails on bad options; an empty
// ballot set yields a placeholder scoreboard.
func Borda(ballots [][]string, opts BordaOptions) (models.Scoreboard, error) {
	if opts.MaxRank < 0 {
		return models.Scoreboard{}, fmt.Errorf("%w: max rank %d is negative", models.ErrTallyConfiguration, opts.MaxRank)
	}
	universe, err := candidateSet(opts.Candidates)
	if err != nil {
		return models.Scoreboard{}, err
	}

	cleaned := make([][]string, 0, len(ballots))
	observed := make(map[string]bool)
	longest := 0
	for _, b := range ballots {
		f := filter(b, universe)
		if len(f) == 0 {
			continue
		}
		for _, name := range f {
			observed[name] = true
		}
		if len(f) > longest {
			longest = len(f)
		}
		cleaned = append(cleaned, f)
	}
	if len(cleaned) == 0 {
		return placeholder(opts.Race, models.MethodBorda), nil
	}

	names := opts.Candidates
	if universe == nil {
		names = make([]string, 0, len(observed))
		for name := range observed {
			names = append(names, name)
		}
	}

	// N is frozen here, before any ballot is scored.
	n := EffectiveMaxRank(opts.MaxRank, len(names))
	width := n
	if longest > width {
		width = longest
	}

	stats := make(map[string]*bordaStats, len(names))
	for _, name := range names {
		stats[name] = &bordaStats{name: name, rankCounts: make([]int, width)}
	}
	for _, b := range cleaned {
		for i, name := range b {
			s := stats[name]
			s.rankCounts[i]++
			if i < n {
				s.points += n - i
			}
		}
	}

	list := make([]*bordaStats, 0, len(stats))
	for _, s := range stats {
		list = append(list, s)
	}

	coll := newCollator(opts.Locale)
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]

		// 1. More points wins
		if a.points != b.points {
			return a.points > b.points
		}

		// 2. More first places, then more second places, ...
		for k := range a.rankCounts {
			if a.rankCounts[k] != b.rankCounts[k] {
				return a.rankCounts[k] > b.rankCounts[k]
			}
		}

		// 3. Name
		return nameLess(coll, a.name, b.name)
	})

	rows := make([]models.ScoreRow, len(list))
	for i, s := range list {
		rows[i] = models.ScoreRow{
			Candidate:  s.name,
			Points:     s.points,
			RankCounts: s.rankCounts,
			Position:   i + 1,
		}
	}

	return models.Scoreboard{
		Race:   opts.Race,
		Method: models.MethodBorda,
		Rows:   rows,
	}, nil
}

// EffectiveMaxRank is the configured rank when set, else the universe size.
func EffectiveMaxRank(configured, universe int) int {
	if configured > 0 {
		return configured
	}
	return universe
}
