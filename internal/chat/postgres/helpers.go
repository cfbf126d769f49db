// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

// Package postgres implements the chat repositories over PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// querier abstracts query execution over *pgxpool.Pool and pgx.Tx so
// helpers can run inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ulidToStringPtr converts a ULID pointer to a string pointer for SQL
// parameters. Returns nil if the input is nil.
func ulidToStringPtr(id *ulid.ULID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// parseOptionalULID parses an optional ULID string pointer into a ULID
// pointer. Returns nil if the input is nil.
func parseOptionalULID(strPtr *string, fieldName string) (*ulid.ULID, error) {
	if strPtr == nil {
		return nil, nil
	}
	id, err := ulid.Parse(*strPtr)
	if err != nil {
		return nil, oops.With("operation", "parse "+fieldName).With(fieldName, *strPtr).Wrap(err)
	}
	return &id, nil
}

// parseULIDs parses a list of ULID strings, wrapping the field name into any
// parse error.
func parseULIDs(strs []string, fieldName string) ([]ulid.ULID, error) {
	if len(strs) == 0 {
		return nil, nil
	}
	ids := make([]ulid.ULID, 0, len(strs))
	for _, s := range strs {
		id, err := ulid.Parse(s)
		if err != nil {
			return nil, oops.With("operation", "parse "+fieldName).With(fieldName, s).Wrap(err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// scanIDColumn drains a single-column result set of ULID strings.
func scanIDColumn(rows pgx.Rows, fieldName string) ([]ulid.ULID, error) {
	defer rows.Close()
	var strs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, oops.With("operation", "scan "+fieldName).Wrap(err)
		}
		strs = append(strs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate "+fieldName).Wrap(err)
	}
	return parseULIDs(strs, fieldName)
}
