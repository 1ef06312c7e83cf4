package tts

import "errors"

// Sentinel errors used to classify render failures. Implementations wrap
// these with %w so the dispatcher can match them via errors.Is.
var (
	// ErrQuotaExceeded indicates the backend rejected the request because the
	// account's quota is exhausted (HTTP 429 / RESOURCE_EXHAUSTED). The engine
	// stays unusable until the quota window resets, so the dispatcher routes
	// around it for the remainder of the session.
	ErrQuotaExceeded = errors.New("tts: quota exceeded")

	// ErrFatal indicates a failure that retrying cannot fix (invalid
	// credentials, unsupported voice, malformed request). The dispatcher does
	// not attempt a fallback engine for fatal errors.
	ErrFatal = errors.New("tts: fatal request error")
)

// IsQuota reports whether err marks the engine quota-exhausted.
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsFatal reports whether err is unrecoverable by retry or failover.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
