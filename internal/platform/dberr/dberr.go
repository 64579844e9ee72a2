// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/userhub/internal/platform/apperr"
)

// ConflictMessages maps a unique constraint name to the client message used
// when it is violated. Unknown constraints fall back to a generic message.
type ConflictMessages map[string]string

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
//   - pgx.ErrNoRows becomes NOT_FOUND for resource.
//   - SQLSTATE 23505 becomes CONFLICT, with the message picked by constraint name.
//   - anything else becomes INTERNAL_ERROR.
func Wrap(err error, resource string, conflicts ConflictMessages) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	if constraint, ok := UniqueViolation(err); ok {
		if message, known := conflicts[constraint]; known {
			return apperr.Conflict(message)
		}
		return apperr.Conflict(resource + " already exists")
	}

	return apperr.Internal(err)
}

// UniqueViolation reports whether err is a Postgres unique violation and returns
// the violated constraint name.
func UniqueViolation(err error) (string, bool) {
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
		return pgError.ConstraintName, true
	}
	return "", false
}
