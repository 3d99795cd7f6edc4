// Package tsp implements the RFC 3161 Time-Stamp Protocol: building and
// serializing timestamp requests, issuing signed timestamp tokens, and
// verifying received tokens against a request and a set of trust anchors.
package tsp

import (
	"errors"
	"fmt"
)

// TimestampError reports a violation of TSP semantics: missing mandatory
// fields, nonce or imprint mismatches, an unresolvable policy, a missing
// signer certificate, or a signer not authorized for timestamping.
// It supports errors.Is() and errors.As() through the error chain.
type TimestampError struct {
	Op  string // Operation: "request", "issue", "verify", "parse"
	Err error  // Underlying error
}

// Error implements the error interface.
func (e *TimestampError) Error() string {
	return fmt.Sprintf("tsp %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TimestampError) Unwrap() error { return e.Err }

// CertificateValidationError reports that the signer's certificate chain
// could not be built or trusted against the supplied anchors. It is kept
// distinct from TimestampError so callers can tell protocol misuse apart
// from an untrusted signer.
type CertificateValidationError struct {
	Err error
}

// Error implements the error interface.
func (e *CertificateValidationError) Error() string {
	return fmt.Sprintf("certificate validation failed: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CertificateValidationError) Unwrap() error { return e.Err }

func timestampErr(op string, err error) *TimestampError {
	return &TimestampError{Op: op, Err: err}
}

// Sentinel errors. Use errors.Is() to check for these through the chain.
var (
	// ErrInvalidArgument indicates a nil or wrongly-typed argument at a
	// public entry point, reported before any protocol logic runs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidAlgorithm indicates an unrecognized digest algorithm name or OID.
	ErrInvalidAlgorithm = errors.New("unrecognized hash algorithm")

	// ErrMissingHashAlgorithm indicates the request has no hash algorithm set.
	ErrMissingHashAlgorithm = errors.New("hash algorithm not set")

	// ErrMissingMessageImprint indicates the request has no message imprint set.
	ErrMissingMessageImprint = errors.New("message imprint not set")

	// ErrMissingGenTime indicates the factory has no generation time configured.
	ErrMissingGenTime = errors.New("generation time not set")

	// ErrMissingSerialNumber indicates the factory has no serial number configured.
	ErrMissingSerialNumber = errors.New("serial number not set")

	// ErrNoPolicy indicates neither the request nor the factory names a policy.
	ErrNoPolicy = errors.New("no policy OID available")

	// ErrNonceMismatch indicates the token's nonce does not echo the request's.
	ErrNonceMismatch = errors.New("nonce mismatch")

	// ErrImprintMismatch indicates the token's message imprint differs from the request's.
	ErrImprintMismatch = errors.New("message imprint mismatch")

	// ErrAlgorithmMismatch indicates the token's imprint algorithm differs from the request's.
	ErrAlgorithmMismatch = errors.New("hash algorithm mismatch")

	// ErrNoSignerCertificate indicates the token embeds no signer certificate
	// and none was supplied out of band.
	ErrNoSignerCertificate = errors.New("no signer certificate available")

	// ErrWrongPurpose indicates the signer certificate lacks the
	// timeStamping extended key usage.
	ErrWrongPurpose = errors.New("signer certificate not authorized for timestamping")

	// ErrInvalidToken indicates the timestamp token is malformed or incomplete.
	ErrInvalidToken = errors.New("invalid timestamp token")
)
