package kafka

import (
	stderrors "errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/segmentio/kafka-go"

	"github.com/kbukum/fluxmux/errors"
)

type errorClass uint8

const (
	classUnknown errorClass = iota
	classConnection
	classTransient
	classPermanent
)

// messageRules catch errors that reach us as plain text, typically from
// wrapped broker responses. They are checked in order.
var messageRules = []struct {
	fragment string
	class    errorClass
}{
	{"connection refused", classConnection},
	{"connection reset", classConnection},
	{"connection closed", classConnection},
	{"broken pipe", classConnection},
	{"i/o timeout", classConnection},
	{"no route to host", classConnection},
	{"network is unreachable", classConnection},
	{"network exception", classConnection},
	{"broker not available", classConnection},
	{"leader not available", classConnection},
	{"dial tcp", classConnection},

	{"temporary", classTransient},
	{"request timed out", classTransient},
	{"not enough replicas", classTransient},
	{"offset out of range", classTransient},

	{"message too large", classPermanent},
	{"invalid topic", classPermanent},
	{"invalid partition", classPermanent},
	{"unknown topic", classPermanent},
	{"authorization failed", classPermanent},
}

func classify(err error) errorClass {
	if err == nil {
		return classUnknown
	}
	var protoErr kafka.Error
	if stderrors.As(err, &protoErr) {
		if protoErr.Temporary() {
			return classTransient
		}
		return classPermanent
	}
	var opErr *net.OpError
	switch {
	case stderrors.As(err, &opErr),
		stderrors.Is(err, syscall.ECONNREFUSED),
		stderrors.Is(err, syscall.ECONNRESET),
		stderrors.Is(err, syscall.EPIPE),
		stderrors.Is(err, io.ErrUnexpectedEOF):
		return classConnection
	}

	msg := strings.ToLower(err.Error())
	for _, r := range messageRules {
		if strings.Contains(msg, r.fragment) {
			return r.class
		}
	}
	return classUnknown
}

// IsConnectionError reports whether err means the broker could not be
// reached or dropped the connection.
func IsConnectionError(err error) bool {
	return classify(err) == classConnection
}

// IsRetryableError reports whether retrying the same request may succeed.
func IsRetryableError(err error) bool {
	c := classify(err)
	return c == classConnection || c == classTransient
}

// IsNonRetryableError reports whether err will recur on every attempt.
func IsNonRetryableError(err error) bool {
	return classify(err) == classPermanent
}

// Classify converts a client error into an AppError for endpoint.
func Classify(endpoint string, err error) *errors.AppError {
	switch classify(err) {
	case classConnection:
		return errors.ConnectionFailed(endpoint).WithCause(err)
	case classTransient:
		appErr := errors.ExternalServiceError(endpoint, err)
		appErr.Retryable = true
		return appErr
	default:
		appErr := errors.ExternalServiceError(endpoint, err)
		appErr.Retryable = false
		return appErr
	}
}
