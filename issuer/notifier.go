// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package issuer

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/anonvote/models"
)

// Notifier delivers a freshly issued credential to its voter. It is the
// only component that ever sees the private key besides the issuer.
type Notifier interface {
	Deliver(ctx context.Context, voter models.Voter, cred models.Credential, production bool) error
}

// LogNotifier simulates delivery by logging who would have been contacted.
// The private key is never written.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Deliver(ctx context.Context, voter models.Voter, cred models.Credential, production bool) error {
	resolveLogger(n.Logger).InfoContext(ctx, "credential delivery simulated",
		"email", voter.Email,
		"public_id", cred.PublicID,
		"production", production,
	)
	return nil
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, voter models.Voter, cred models.Credential, production bool) error

func (f NotifierFunc) Deliver(ctx context.Context, voter models.Voter, cred models.Credential, production bool) error {
	return f(ctx, voter, cred, production)
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
