// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"fmt"
	"io"

	"github.com/danielhkuo/anonvote/models"
)

var (
	rosterNameAliases  = []string{"name", "nome", "nome completo", "full name"}
	rosterEmailAliases = []string{"email", "e-mail", "endereco de e-mail", "endereco email", "email address"}
)

// ParseRoster reads name;email rows with a header. Rows with neither
// field are skipped. Addresses are checked later, by the issuer, so every
// bad line can be reported at once.
func ParseRoster(r io.Reader) ([]models.Voter, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	nameCol := findColumn(header, rosterNameAliases)
	emailCol := findColumn(header, rosterEmailAliases)
	if emailCol < 0 {
		return nil, fmt.Errorf("%w: roster header has no email column", models.ErrMalformedInput)
	}

	voters := make([]models.Voter, 0, len(rows))
	for n, record := range rows {
		v := models.Voter{
			Name:  field(record, nameCol),
			Email: field(record, emailCol),
			Line:  n + 2,
		}
		if v.Name == "" && v.Email == "" {
			continue
		}
		voters = append(voters, v)
	}
	return voters, nil
}
