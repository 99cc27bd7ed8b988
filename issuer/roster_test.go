// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package issuer

import (
	"errors"
	"testing"

	"github.com/danielhkuo/anonvote/models"
)

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"ana@example.com", true},
		{"ana.maria-souza@mail.example.com.br", true},
		{"  ana@example.com  ", true},
		{"ana@example", false},
		{"ana@example.com.", false},
		{"ana example@x.com", false},
		{"@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestValidateRoster(t *testing.T) {
	voters := []models.Voter{
		{Name: "Ana", Email: "ana@example.com", Line: 2},
		{Name: "Bruno", Email: "bruno@", Line: 3},
		{Name: "Ana again", Email: "ANA@example.com", Line: 4},
	}
	err := ValidateRoster(voters)
	if !errors.Is(err, models.ErrMalformedInput) {
		t.Fatalf("ValidateRoster() error = %v, want ErrMalformedInput", err)
	}
	var rerr *RosterError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RosterError, got %T", err)
	}
	if len(rerr.Lines) != 2 {
		t.Errorf("reported %d lines, want 2: %v", len(rerr.Lines), rerr.Lines)
	}

	if err := ValidateRoster(voters[:1]); err != nil {
		t.Errorf("ValidateRoster(valid) error = %v", err)
	}
}
