// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import "github.com/danielhkuo/anonvote/models"

// DefaultCutoffFraction applies when no fraction is configured.
const DefaultCutoffFraction = 0.5

// Summarize computes the aggregates shown beside the race tables.
// cutoff = active × max rank × fraction, where max rank falls back to the
// effective rank when none is configured.
func Summarize(active, countable, configuredMaxRank, effectiveMaxRank int, fraction float64) models.Summary {
	if fraction <= 0 {
		fraction = DefaultCutoffFraction
	}
	rank := EffectiveMaxRank(configuredMaxRank, effectiveMaxRank)

	return models.Summary{
		ActiveCredentials: active,
		CountableVotes:    countable,
		ConfiguredMaxRank: configuredMaxRank,
		EffectiveMaxRank:  rank,
		CutoffFraction:    fraction,
		Cutoff:            float64(active) * float64(rank) * fraction,
	}
}
