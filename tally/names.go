// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/danielhkuo/anonvote/models"
)

// DefaultLocale collates candidate names when none is configured.
const DefaultLocale = "pt-BR"

// newCollator builds a fresh collator per call; collate.Collator is not
// safe for concurrent use.
func newCollator(locale string) *collate.Collator {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return collate.New(tag, collate.IgnoreCase)
}

// nameLess orders names by collation, falling back to byte order so the
// result stays total when the collator considers two names equal.
func nameLess(c *collate.Collator, a, b string) bool {
	if r := c.CompareString(a, b); r != 0 {
		return r < 0
	}
	return a < b
}

// dedupe keeps the first occurrence of each name.
func dedupe(ballot []string) []string {
	seen := make(map[string]bool, len(ballot))
	out := make([]string, 0, len(ballot))
	for _, name := range ballot {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// candidateSet checks a configured candidate list. A nil set means the
// universe is inferred from the ballots.
func candidateSet(candidates []string) (map[string]bool, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	set := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c == "" {
			return nil, fmt.Errorf("%w: empty candidate name", models.ErrTallyConfiguration)
		}
		if set[c] {
			return nil, fmt.Errorf("%w: duplicate candidate %q", models.ErrTallyConfiguration, c)
		}
		set[c] = true
	}
	return set, nil
}

// filter drops names outside the universe and dedupes the rest.
func filter(ballot []string, universe map[string]bool) []string {
	b := dedupe(ballot)
	if universe == nil {
		return b
	}
	out := b[:0]
	for _, name := range b {
		if universe[name] {
			out = append(out, name)
		}
	}
	return out
}

func placeholder(race, method string) models.Scoreboard {
	return models.Scoreboard{
		Race:        race,
		Method:      method,
		Rows:        []models.ScoreRow{},
		Placeholder: true,
	}
}
