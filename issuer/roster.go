// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package issuer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/danielhkuo/anonvote/models"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// ValidEmail applies the basic shape check mail relays expect.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || strings.HasSuffix(email, ".") {
		return false
	}
	return emailPattern.MatchString(email)
}

// RosterError lists every bad roster line.
type RosterError struct {
	Lines []string
}

func (e *RosterError) Error() string {
	return fmt.Sprintf("%d invalid roster entries: %s", len(e.Lines), strings.Join(e.Lines, "; "))
}

func (e *RosterError) Unwrap() error { return models.ErrMalformedInput }

// ValidateRoster checks the whole roster before any credential work. It
// also rejects an address that appears twice.
func ValidateRoster(voters []models.Voter) error {
	var bad []string
	seen := make(map[string]int)

	for i, v := range voters {
		line := v.Line
		if line == 0 {
			line = i + 1
		}
		email := strings.ToLower(strings.TrimSpace(v.Email))

		if !ValidEmail(email) {
			bad = append(bad, fmt.Sprintf("line %d: %q (%s)", line, v.Email, v.Name))
			continue
		}
		if first, ok := seen[email]; ok {
			bad = append(bad, fmt.Sprintf("line %d: %q repeats line %d", line, v.Email, first))
			continue
		}
		seen[email] = line
	}

	if len(bad) > 0 {
		return &RosterError{Lines: bad}
	}
	return nil
}
