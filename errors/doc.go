// Package errors provides the structured error type shared by every flowpipe
// package. Each AppError carries a machine-readable code, a human-readable
// message, the HTTP status the server should answer with, and optional
// details and cause.
package errors
