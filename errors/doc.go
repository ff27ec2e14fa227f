// Package errors defines AppError, the error type fluxmux packages return
// to each other. An AppError carries a code for callers that branch on
// the kind of failure and a retryable flag that the bridge consults
// before redelivering a record.
package errors
