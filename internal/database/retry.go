package database

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/card-service/internal/apperror"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PostgreSQL error codes the gateway and repositories care about
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeStringTooLong        = "22001"
	codeNumericOutOfRange    = "22003"
	codeInsufficientResource = "53000"
	codeTooManyConnections   = "53300"
)

// isCapacityError reports whether err is a transient capacity failure worth retrying
func isCapacityError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == codeTooManyConnections || pqErr.Code == codeInsufficientResource
}

// UniqueViolation returns the violated constraint name when err is a unique
// constraint violation.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// CheckViolation reports whether err is a CHECK constraint violation
func CheckViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeCheckViolation
}

// OutOfRange reports whether err is a value too long or too large for its column
func OutOfRange(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && (pqErr.Code == codeStringTooLong || pqErr.Code == codeNumericOutOfRange)
}

func unavailable(err error) error {
	return apperror.Unavailable("Service temporarily unavailable, please retry", err)
}

// withRetry runs op, repeating it after a fixed backoff while it fails with a
// capacity error, up to the configured number of attempts.
func (d *DB) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= d.retries; attempt++ {
		err = fn()
		if err == nil || !isCapacityError(err) {
			return err
		}

		d.log.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"max":     d.retries,
		}).Warn("Database at capacity, retrying")

		if attempt == d.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.backoff):
		}
	}
	return unavailable(err)
}
