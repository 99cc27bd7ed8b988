// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/danielhkuo/anonvote/models"
)

// FoldHeader lowercases, strips accents and collapses separators so
// "Chave Privada", "chave_privada" and "CHAVE  PRIVADA" compare equal.
func FoldHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, h)
	if err != nil {
		folded = h
	}
	folded = strings.ToLower(folded)
	folded = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// DetectDelimiter picks ';' or ',' from the first line, preferring ';'
// on a tie as spreadsheet exports in pt-BR locales do.
func DetectDelimiter(firstLine string) rune {
	if strings.Count(firstLine, ";") >= strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

// readAll reads a delimited file with a header row. A UTF-8 BOM is skipped
// and the delimiter is detected from the header.
func readAll(r io.Reader) (header []string, rows [][]string, err error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	first, _, _ := strings.Cut(string(data), "\n")

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = DetectDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrMalformedInput, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: missing header row", models.ErrMalformedInput)
	}
	return records[0], records[1:], nil
}

// field returns record[i] trimmed, or "" when the row is short.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// findColumn returns the first header matching any alias, or -1.
func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		fh := FoldHeader(h)
		for _, a := range aliases {
			if fh == FoldHeader(a) {
				return i
			}
		}
	}
	return -1
}
