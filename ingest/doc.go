// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ingest reads the delimited files operators hand to the system.

# Submission Funnel

Form exports name their columns differently from one run to the next.
Bind resolves the header once, matching folded aliases ("Chave Privada",
"chave_privada", "secret"), and returns a Binding that converts rows by
index:

	b, err := ingest.Bind(header, ingest.BindOptions{})
	sub, err := b.Row(record)

Race 1 is a contiguous range of columns, race 2 a single free-text column
split on commas, semicolons and newlines. An empty race range, or one
that overlaps another bound column, fails with
models.ErrTallyConfiguration.

# Registry and Roster

ParseRegistry reads public_id;public_key;is_active rows and accepts the
boolean spellings spreadsheets produce (TRUE, 1, SIM, ...). ParseRoster
reads name;email rows.

All readers skip a UTF-8 BOM and pick ';' or ',' from the header line.
*/
package ingest
