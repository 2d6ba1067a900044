// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"appfeed/internal/models"
	"appfeed/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// track starts a repository span and the query latency timer. The returned
// func ends both.
func track(ctx context.Context, table, op string) (context.Context, func()) {
	span, ctx := observability.StartRepositorySpan(ctx, table, op)
	done := observability.TrackQuery(op, table)
	return ctx, func() {
		done()
		span.End()
	}
}

// storageError logs err against the table and wraps it as a storage failure.
// AppErrors pass through untouched.
func storageError(ctx context.Context, log *observability.RepoLogger, op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	log.LogError(ctx, err, op)
	return models.NewInternalError(err)
}
