package database

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/kbukum/fluxmux/errors"
)

// SQLSTATE codes that change how a failure is reported.
const (
	sqlstateUniqueViolation     = "23505"
	sqlstateSerialization       = "40001"
	sqlstateDeadlock            = "40P01"
	sqlstateLockNotAvailable    = "55P03"
	sqlstateTooManyConnections  = "53300"
	sqlstateAdminShutdown       = "57P01"
	sqlstateCannotConnectNow    = "57P03"
	sqlstateConnectionException = "08" // class prefix
)

// Driver messages for failures that carry no SQLSTATE, as raised by
// database/sql, the sqlite driver or the network stack.
var (
	connectionMessages = []string{
		"connection refused", "connection reset", "connection closed", "connection lost",
		"broken pipe", "i/o timeout", "no route to host", "network is unreachable",
		"driver: bad connection", "invalid connection", "the database system is starting up",
	}
	contentionMessages = []string{
		"deadlock", "lock timeout", "database is locked", "too many connections",
	}
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func containsAny(err error, fragments []string) bool {
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// IsConnectionError reports whether err means the server could not be
// reached or went away.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	switch code := pgCode(err); {
	case strings.HasPrefix(code, sqlstateConnectionException),
		code == sqlstateAdminShutdown,
		code == sqlstateCannotConnectNow:
		return true
	case code != "":
		return false
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return true
	}
	return containsAny(err, connectionMessages)
}

// IsRetryableError reports whether the same statement may succeed on a
// later attempt: lost connections and lock contention.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionError(err) {
		return true
	}
	switch pgCode(err) {
	case sqlstateSerialization, sqlstateDeadlock, sqlstateLockNotAvailable, sqlstateTooManyConnections:
		return true
	case "":
		return containsAny(err, contentionMessages)
	}
	return false
}

// FromDatabase converts a driver or gorm error into an AppError. AppErrors
// pass through unchanged.
func FromDatabase(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case stderrors.Is(err, context.Canceled):
		return errors.Internal(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout("database operation").WithCause(err)
	case IsConnectionError(err):
		return errors.ConnectionFailed("database").WithCause(err)
	}

	appErr := errors.DatabaseError(err)
	appErr.Retryable = IsRetryableError(err)
	if code := pgCode(err); code != "" {
		appErr.WithDetail("sqlstate", code)
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == sqlstateUniqueViolation {
		appErr.Retryable = false
		appErr.WithDetail("reason", "duplicate key")
	}
	return appErr
}
