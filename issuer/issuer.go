// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package issuer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/anonvote/auth"
	"github.com/danielhkuo/anonvote/models"
	"github.com/danielhkuo/anonvote/store"
)

// DefaultMaxIDAttempts bounds public id regeneration on collision.
const DefaultMaxIDAttempts = 32

var (
	// ErrIDSpaceExhausted means every attempt hit an id already in use.
	ErrIDSpaceExhausted = errors.New("public id space exhausted")
	// ErrDeliveryFailed is returned in production mode when the notifier
	// fails; nothing is registered for that voter.
	ErrDeliveryFailed = errors.New("credential delivery failed")
	// ErrUnknownVoter is returned when a targeted email is not on the roster.
	ErrUnknownVoter = errors.New("voter not on roster")
)

// Config wires an Issuer to its collaborators.
type Config struct {
	MasterSecret  string
	Credentials   store.CredentialStore
	Log           store.IssuanceLog
	Notifier      Notifier
	Random        io.Reader // nil: crypto/rand
	MaxIDAttempts int
	Logger        *slog.Logger
}

// Issuer mints credentials and keeps the registry and issuance log in step.
type Issuer struct {
	masterSecret string
	creds        store.CredentialStore
	log          store.IssuanceLog
	notifier     Notifier
	random       io.Reader
	maxAttempts  int
	logger       *slog.Logger
	now          func() time.Time
}

// New validates cfg. A missing master secret is a configuration error.
func New(cfg Config) (*Issuer, error) {
	if cfg.MasterSecret == "" {
		return nil, fmt.Errorf("%w: master secret is required", models.ErrConfiguration)
	}
	if cfg.Credentials == nil || cfg.Log == nil {
		return nil, fmt.Errorf("%w: credential store and issuance log are required", models.ErrConfiguration)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = LogNotifier{Logger: cfg.Logger}
	}
	if cfg.MaxIDAttempts <= 0 {
		cfg.MaxIDAttempts = DefaultMaxIDAttempts
	}

	return &Issuer{
		masterSecret: cfg.MasterSecret,
		creds:        cfg.Credentials,
		log:          cfg.Log,
		notifier:     cfg.Notifier,
		random:       cfg.Random,
		maxAttempts:  cfg.MaxIDAttempts,
		logger:       resolveLogger(cfg.Logger),
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue mints one credential whose public id is not in the registry. It
// does not register it.
func (i *Issuer) Issue(ctx context.Context) (models.Credential, error) {
	snap, err := i.creds.Snapshot(ctx)
	if err != nil {
		return models.Credential{}, err
	}
	return i.mint(takenSet(snap))
}

// mint draws ids until one is free in taken, then reserves it there.
func (i *Issuer) mint(taken map[string]bool) (models.Credential, error) {
	var id string
	for attempt := 0; ; attempt++ {
		if attempt == i.maxAttempts {
			return models.Credential{}, fmt.Errorf("%w after %d attempts", ErrIDSpaceExhausted, attempt)
		}
		candidate, err := auth.GeneratePublicID(i.random)
		if err != nil {
			return models.Credential{}, fmt.Errorf("failed to generate public id: %w", err)
		}
		if !taken[candidate] {
			id = candidate
			break
		}
	}

	priv, err := auth.GeneratePrivateKey(i.random, auth.PrivateKeyLength)
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to generate private key: %w", err)
	}

	taken[id] = true
	return models.Credential{
		PublicID:   id,
		PrivateKey: priv,
		PublicKey:  auth.DerivePublicKey(priv, i.masterSecret),
	}, nil
}

func takenSet(snap models.Snapshot) map[string]bool {
	taken := make(map[string]bool, len(snap))
	for id := range snap {
		taken[id] = true
	}
	return taken
}

// BatchOptions controls IssueBatch.
type BatchOptions struct {
	// Resend reissues voters that already hold a credential.
	Resend bool
	// Production marks records as real deliveries and drops credentials
	// whose delivery failed.
	Production bool
	// Only restricts the batch to one email and implies Resend.
	Only string
}

// BatchResult summarizes one IssueBatch call.
type BatchResult struct {
	Issued  int
	Skipped int
	Failed  int
	Records []models.IssuanceRecord
}

// IssueBatch validates the roster, shuffles it, and issues a credential to
// every voter that does not already hold one.
func (i *Issuer) IssueBatch(ctx context.Context, voters []models.Voter, opts BatchOptions) (BatchResult, error) {
	var res BatchResult

	if err := ValidateRoster(voters); err != nil {
		return res, err
	}

	targets := voters
	if opts.Only != "" {
		targets = nil
		for _, v := range voters {
			if strings.EqualFold(strings.TrimSpace(v.Email), strings.TrimSpace(opts.Only)) {
				targets = []models.Voter{v}
				break
			}
		}
		if targets == nil {
			return res, fmt.Errorf("%w: %s", ErrUnknownVoter, opts.Only)
		}
		opts.Resend = true
	}

	// Registration order must not reveal roster order.
	order := append([]models.Voter(nil), targets...)
	if err := auth.Shuffle(i.random, order); err != nil {
		return res, fmt.Errorf("failed to shuffle roster: %w", err)
	}
	i.logger.Info("issuing credentials", "voters", len(order), "resend", opts.Resend, "production", opts.Production)

	snap, err := i.creds.Snapshot(ctx)
	if err != nil {
		return res, err
	}
	taken := takenSet(snap)

	for _, v := range order {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		current, err := i.log.Current(ctx, v.Email)
		held := err == nil
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return res, err
		}
		if held && !opts.Resend {
			res.Skipped++
			continue
		}

		var prev *models.IssuanceRecord
		if held {
			prev = &current
		}
		rec, err := i.issueTo(ctx, v, prev, snap, taken, opts.Production)
		if errors.Is(err, ErrDeliveryFailed) {
			res.Failed++
			continue
		}
		if err != nil {
			return res, err
		}
		res.Issued++
		res.Records = append(res.Records, rec)
	}

	i.logger.Info("issuance finished", "issued", res.Issued, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

// Reissue revokes the voter's current credential and issues a new one.
// The old registry row is kept with IsActive false.
func (i *Issuer) Reissue(ctx context.Context, voter models.Voter, production bool) (models.IssuanceRecord, error) {
	if !ValidEmail(voter.Email) {
		return models.IssuanceRecord{}, fmt.Errorf("%w: %q", models.ErrMalformedInput, voter.Email)
	}

	var prev *models.IssuanceRecord
	current, err := i.log.Current(ctx, voter.Email)
	switch {
	case err == nil:
		prev = &current
	case !errors.Is(err, store.ErrNotFound):
		return models.IssuanceRecord{}, err
	}

	snap, err := i.creds.Snapshot(ctx)
	if err != nil {
		return models.IssuanceRecord{}, err
	}
	return i.issueTo(ctx, voter, prev, snap, takenSet(snap), production)
}

// issueTo mints, delivers, revokes prev and registers, in that order. A
// failed production delivery leaves the registry untouched.
func (i *Issuer) issueTo(ctx context.Context, voter models.Voter, prev *models.IssuanceRecord, snap models.Snapshot, taken map[string]bool, production bool) (models.IssuanceRecord, error) {
	cred, err := i.mint(taken)
	if err != nil {
		return models.IssuanceRecord{}, err
	}

	delivered := true
	if err := i.notifier.Deliver(ctx, voter, cred, production); err != nil {
		delivered = false
		i.logger.Warn("credential delivery failed", "email", voter.Email, "public_id", cred.PublicID, "error", err)
		if production {
			delete(taken, cred.PublicID)
			return models.IssuanceRecord{}, fmt.Errorf("%w: %s", ErrDeliveryFailed, voter.Email)
		}
	}

	generation := 1
	if prev != nil {
		generation = prev.Generation + 1
		if err := i.revoke(ctx, prev.PublicID, snap); err != nil {
			return models.IssuanceRecord{}, err
		}
	}

	now := i.now()
	if err := i.creds.Upsert(ctx, models.CredentialRecord{
		PublicID:  cred.PublicID,
		PublicKey: cred.PublicKey,
		IsActive:  true,
		IssuedAt:  now,
	}); err != nil {
		return models.IssuanceRecord{}, err
	}

	rec := models.IssuanceRecord{
		Email:      strings.ToLower(strings.TrimSpace(voter.Email)),
		PublicID:   cred.PublicID,
		Generation: generation,
		IssuedAt:   now,
		Delivered:  delivered,
		Production: production,
	}
	if err := i.log.Record(ctx, rec); err != nil {
		return models.IssuanceRecord{}, err
	}

	i.logger.Info("credential issued", "public_id", cred.PublicID, "generation", generation)
	return rec, nil
}

func (i *Issuer) revoke(ctx context.Context, publicID string, snap models.Snapshot) error {
	entry, ok := snap[models.PadPublicID(publicID)]
	if !ok {
		i.logger.Warn("previous credential missing from registry", "public_id", publicID)
		return nil
	}
	if !entry.IsActive {
		return nil
	}
	if err := i.creds.Upsert(ctx, models.CredentialRecord{
		PublicID:  publicID,
		PublicKey: entry.PublicKey,
		IsActive:  false,
	}); err != nil {
		return err
	}
	i.logger.Info("credential revoked", "public_id", publicID)
	return nil
}
