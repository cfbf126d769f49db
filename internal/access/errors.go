// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package access

import "errors"

// Expected authorization outcomes. Callers branch with errors.Is; these are
// results, not faults, and are never wrapped in panics.
var (
	// ErrPermissionDenied is returned when a member lacks the required
	// permission or channel visibility.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a referenced entity does not exist or
	// does not belong to the expected parent scope.
	ErrNotFound = errors.New("not found")

	// ErrConstraintViolation is returned when a mutation would break a
	// structural invariant, such as deleting a default role.
	ErrConstraintViolation = errors.New("constraint violation")
)
