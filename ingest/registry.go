// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/danielhkuo/anonvote/auth"
	"github.com/danielhkuo/anonvote/models"
)

var (
	registryIDAliases     = []string{"public id", "id", "user id", "id publico"}
	registryKeyAliases    = []string{"public key", "chave publica", "pub key"}
	registryActiveAliases = []string{"is active", "active", "ativo", "ativa", "status"}
)

// ParseBool reads the boolean-like tokens spreadsheets produce.
func ParseBool(token string) (bool, error) {
	switch FoldHeader(token) {
	case "true", "1", "yes", "y", "sim", "s", "verdadeiro", "v", "active", "ativo", "ativa":
		return true, nil
	case "false", "0", "no", "n", "nao", "falso", "f", "inactive", "inativo", "inativa", "":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", models.ErrMalformedInput, token)
}

// ParseRegistry reads public_id;public_key;is_active rows. Every bad line
// is reported together.
func ParseRegistry(r io.Reader) ([]models.CredentialRecord, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	idCol := findColumn(header, registryIDAliases)
	keyCol := findColumn(header, registryKeyAliases)
	activeCol := findColumn(header, registryActiveAliases)
	if idCol < 0 || keyCol < 0 || activeCol < 0 {
		return nil, fmt.Errorf("%w: registry header needs public id, public key and is active columns", models.ErrMalformedInput)
	}

	var recs []models.CredentialRecord
	var bad []string
	seen := make(map[string]int)
	for n, record := range rows {
		line := n + 2
		if blankRecord(record) {
			continue
		}

		id := models.PadPublicID(field(record, idCol))
		key := strings.ToLower(field(record, keyCol))
		active, err := ParseBool(field(record, activeCol))

		switch {
		case err != nil:
			bad = append(bad, fmt.Sprintf("line %d: %v", line, err))
		case id == "":
			bad = append(bad, fmt.Sprintf("line %d: empty public id", line))
		case !auth.IsPublicKey(key):
			bad = append(bad, fmt.Sprintf("line %d: public key is not 64 hex chars", line))
		default:
			if first, ok := seen[id]; ok {
				bad = append(bad, fmt.Sprintf("line %d: public id %s repeats line %d", line, id, first))
				continue
			}
			seen[id] = line
			recs = append(recs, models.CredentialRecord{PublicID: id, PublicKey: key, IsActive: active})
		}
	}

	if len(bad) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrMalformedInput, strings.Join(bad, "; "))
	}
	return recs, nil
}
