// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/danielhkuo/anonvote/models"
)

// Header synonyms accepted by Bind.
var (
	TimestampAliases = []string{"timestamp", "submitted at", "carimbo de data/hora", "data/hora", "date"}
	PublicIDAliases  = []string{"public id", "id", "user id", "id publico", "identificador", "seu id"}
	SecretAliases    = []string{"secret", "private key", "chave privada", "chave", "senha", "sua chave privada"}
)

// Default race column names, matched after FoldHeader.
const (
	DefaultRace1Prefix = "race 1"
	DefaultRace2Header = "race 2"
)

// TimestampLayouts are tried in order when parsing the timestamp column.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Range is a half-open span of column indexes.
type Range struct {
	Start, End int
}

func (r Range) empty() bool           { return r.End <= r.Start }
func (r Range) contains(i int) bool   { return i >= r.Start && i < r.End }
func (r Range) overlaps(o Range) bool { return r.Start < o.End && o.Start < r.End }
func (r Range) String() string        { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Column returns a pointer to i for BindOptions.Race2.
func Column(i int) *int { return &i }

// BindOptions locates the race columns. Nil values fall back to header
// matching: race 1 is every contiguous column whose folded header starts
// with Race1Prefix, race 2 the column named Race2Header.
type BindOptions struct {
	Race1       *Range
	Race2       *int
	Race1Prefix string
	Race2Header string
	Location    *time.Location
}

// Binding maps submission-funnel columns to fields. It is resolved once
// per header so rows never repeat alias lookup.
type Binding struct {
	Timestamp int // -1 when absent
	PublicID  int
	Secret    int
	Race1     Range
	Race2     int
	loc       *time.Location
}

// Bind resolves header into a Binding. Missing id or secret columns are
// malformed input; empty or overlapping race ranges are a tally
// configuration error.
func Bind(header []string, opts BindOptions) (Binding, error) {
	b := Binding{
		Timestamp: findColumn(header, TimestampAliases),
		PublicID:  findColumn(header, PublicIDAliases),
		Secret:    findColumn(header, SecretAliases),
		loc:       opts.Location,
	}
	if b.loc == nil {
		b.loc = time.UTC
	}
	if b.PublicID < 0 {
		return Binding{}, fmt.Errorf("%w: no public id column in header", models.ErrMalformedInput)
	}
	if b.Secret < 0 {
		return Binding{}, fmt.Errorf("%w: no secret column in header", models.ErrMalformedInput)
	}

	if opts.Race1 != nil {
		b.Race1 = *opts.Race1
	} else {
		r, err := prefixRange(header, opts.Race1Prefix)
		if err != nil {
			return Binding{}, err
		}
		b.Race1 = r
	}
	if b.Race1.empty() || b.Race1.Start < 0 || b.Race1.End > len(header) {
		return Binding{}, fmt.Errorf("%w: race 1 columns %s are empty or out of range", models.ErrTallyConfiguration, b.Race1)
	}

	if opts.Race2 != nil {
		b.Race2 = *opts.Race2
	} else {
		name := opts.Race2Header
		if name == "" {
			name = DefaultRace2Header
		}
		b.Race2 = findColumn(header, []string{name})
	}
	if b.Race2 < 0 || b.Race2 >= len(header) {
		return Binding{}, fmt.Errorf("%w: race 2 column not found", models.ErrTallyConfiguration)
	}

	race2 := Range{b.Race2, b.Race2 + 1}
	if b.Race1.overlaps(race2) {
		return Binding{}, fmt.Errorf("%w: race 2 column %d overlaps race 1 columns %s", models.ErrTallyConfiguration, b.Race2, b.Race1)
	}
	for name, col := range map[string]int{"timestamp": b.Timestamp, "public id": b.PublicID, "secret": b.Secret} {
		if col >= 0 && (b.Race1.contains(col) || col == b.Race2) {
			return Binding{}, fmt.Errorf("%w: %s column %d overlaps a race range", models.ErrTallyConfiguration, name, col)
		}
	}

	return b, nil
}

func prefixRange(header []string, prefix string) (Range, error) {
	if prefix == "" {
		prefix = DefaultRace1Prefix
	}
	prefix = FoldHeader(prefix)

	r := Range{Start: -1, End: -1}
	for i, h := range header {
		if !strings.HasPrefix(FoldHeader(h), prefix) {
			continue
		}
		switch {
		case r.Start < 0:
			r = Range{i, i + 1}
		case r.End == i:
			r.End = i + 1
		default:
			return Range{}, fmt.Errorf("%w: race 1 columns are not contiguous", models.ErrTallyConfiguration)
		}
	}
	if r.Start < 0 {
		return Range{}, fmt.Errorf("%w: no race 1 columns match %q", models.ErrTallyConfiguration, prefix)
	}
	return r, nil
}

// Row converts one record. The raw secret is copied as-is; normalization
// happens at validation time.
func (b Binding) Row(record []string) (models.VoteSubmission, error) {
	sub := models.VoteSubmission{
		PublicID:        models.PadPublicID(field(record, b.PublicID)),
		SubmittedSecret: field(record, b.Secret),
		Race2Selections: SplitSelections(field(record, b.Race2)),
	}

	for i := b.Race1.Start; i < b.Race1.End; i++ {
		if name := field(record, i); name != "" {
			sub.Race1Rankings = append(sub.Race1Rankings, name)
		}
	}

	if b.Timestamp >= 0 {
		raw := field(record, b.Timestamp)
		if raw != "" {
			ts, err := ParseTimestamp(raw, b.loc)
			if err != nil {
				return models.VoteSubmission{}, err
			}
			sub.Timestamp = ts
		}
	}

	return sub, nil
}

// ParseTimestamp tries each of TimestampLayouts in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range TimestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", models.ErrMalformedInput, raw)
}

// ReadSubmissions binds the header of r and converts every data row.
// Rows that are entirely empty are skipped.
func ReadSubmissions(r io.Reader, opts BindOptions) ([]models.VoteSubmission, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	b, err := Bind(header, opts)
	if err != nil {
		return nil, err
	}

	subs := make([]models.VoteSubmission, 0, len(rows))
	for n, record := range rows {
		if blankRecord(record) {
			continue
		}
		sub, err := b.Row(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
