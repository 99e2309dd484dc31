package resolver

import (
	"errors"
	"fmt"
)

// Kind classifies a resolution failure. Callers inspect the kind (via
// errors.Is against the exported sentinels) to decide on retry or fallback;
// the resolver itself never retries.
type Kind int

const (
	// KindSubsystemNotReady means the networking subsystem is not ready.
	KindSubsystemNotReady Kind = iota + 1
	// KindSubsystemNotInitialized means the networking subsystem was never
	// initialized; a stricter variant of KindSubsystemNotReady.
	KindSubsystemNotInitialized
	// KindHostNotFound is an authoritative negative answer: the queried
	// name or address has no record.
	KindHostNotFound
	// KindTemporaryFailure is a transient backend error; the caller may
	// retry later.
	KindTemporaryFailure
	// KindNonRecoverableFailure is a permanent backend failure distinct
	// from "not found".
	KindNonRecoverableFailure
	// KindNoAddressFound means the host was identified but has no usable
	// address.
	KindNoAddressFound
	// KindIOFailure is the fallback for unrecognized backend codes; the
	// raw code is preserved for diagnostics.
	KindIOFailure
	// KindLocalHostUnavailable means the local machine's own host name
	// could not be obtained. No network resolution was attempted.
	KindLocalHostUnavailable
)

// Backend failure codes, as reported by System implementations through
// SystemError. The set mirrors the classic resolver h_errno values plus
// the two Winsock startup codes.
const (
	CodeHostNotFound   = 1     // HOST_NOT_FOUND
	CodeTryAgain       = 2     // TRY_AGAIN
	CodeNoRecovery     = 3     // NO_RECOVERY
	CodeNoData         = 4     // NO_DATA
	CodeSysNotReady    = 10091 // WSASYSNOTREADY
	CodeNotInitialized = 10093 // WSANOTINITIALISED
)

// Sentinels for errors.Is kind matching. Each matches any *Error of the
// same kind regardless of host or code.
var (
	ErrSubsystemNotReady       = &Error{kind: KindSubsystemNotReady}
	ErrSubsystemNotInitialized = &Error{kind: KindSubsystemNotInitialized}
	ErrHostNotFound            = &Error{kind: KindHostNotFound}
	ErrTemporaryFailure        = &Error{kind: KindTemporaryFailure}
	ErrNonRecoverableFailure   = &Error{kind: KindNonRecoverableFailure}
	ErrNoAddressFound          = &Error{kind: KindNoAddressFound}
	ErrIOFailure               = &Error{kind: KindIOFailure}
	ErrLocalHostUnavailable    = &Error{kind: KindLocalHostUnavailable}
)

// Error is a typed resolution failure. Host carries the offending
// hostname or address display string; Code carries the raw backend code
// for KindIOFailure.
type Error struct {
	kind Kind
	host string
	code int
	err  error
}

// Kind returns the failure classification.
func (e *Error) Kind() Kind { return e.kind }

// Host returns the hostname or address string the failure refers to.
func (e *Error) Host() string { return e.host }

// Code returns the raw backend failure code, when one was reported.
func (e *Error) Code() int { return e.code }

func (e *Error) Error() string {
	switch e.kind {
	case KindSubsystemNotReady:
		return "net subsystem not ready"
	case KindSubsystemNotInitialized:
		return "net subsystem not initialized"
	case KindHostNotFound:
		return fmt.Sprintf("host not found: %s", e.host)
	case KindTemporaryFailure:
		return fmt.Sprintf("temporary failure resolving %q", e.host)
	case KindNonRecoverableFailure:
		return fmt.Sprintf("non-recoverable failure resolving %q", e.host)
	case KindNoAddressFound:
		return fmt.Sprintf("no address found for %q", e.host)
	case KindIOFailure:
		return fmt.Sprintf("resolver I/O failure resolving %q (code %d)", e.host, e.code)
	case KindLocalHostUnavailable:
		return "cannot get local host name"
	default:
		return fmt.Sprintf("resolution failure for %q", e.host)
	}
}

// Is reports kind equality, so errors.Is(err, ErrHostNotFound) matches any
// host-not-found failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

// Unwrap exposes the underlying backend error, if any.
func (e *Error) Unwrap() error { return e.err }

// SystemError is how System implementations report a failed call: the
// numeric code from the backend's fixed code space plus the underlying
// cause. The resolver translates it into a typed *Error; backends never
// build *Error themselves.
type SystemError struct {
	Code int
	Err  error
}

func (e *SystemError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("system resolver code %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("system resolver code %d", e.Code)
}

// Unwrap exposes the underlying cause.
func (e *SystemError) Unwrap() error { return e.Err }

// translate maps a backend failure onto the error taxonomy. The mapping is
// total: every recognized code has exactly one kind and anything else,
// including failures that carry no SystemError at all, falls back to
// KindIOFailure with the raw code preserved.
func translate(err error, host string) *Error {
	var se *SystemError
	if !errors.As(err, &se) {
		return &Error{kind: KindIOFailure, host: host, err: err}
	}

	switch se.Code {
	case CodeSysNotReady:
		return &Error{kind: KindSubsystemNotReady, host: host, code: se.Code, err: err}
	case CodeNotInitialized:
		return &Error{kind: KindSubsystemNotInitialized, host: host, code: se.Code, err: err}
	case CodeHostNotFound:
		return &Error{kind: KindHostNotFound, host: host, code: se.Code, err: err}
	case CodeTryAgain:
		return &Error{kind: KindTemporaryFailure, host: host, code: se.Code, err: err}
	case CodeNoRecovery:
		return &Error{kind: KindNonRecoverableFailure, host: host, code: se.Code, err: err}
	case CodeNoData:
		return &Error{kind: KindNoAddressFound, host: host, code: se.Code, err: err}
	default:
		return &Error{kind: KindIOFailure, host: host, code: se.Code, err: err}
	}
}
