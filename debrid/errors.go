package debrid

import (
	"errors"
	"fmt"
)

// ErrJobExists is returned by FindOrCreateJob when the provider already has a
// job for the torrent.
var ErrJobExists = errors.New("job already exists")

// ErrNoVideo is returned when a job holds no playable file.
var ErrNoVideo = errors.New("no playable video file")

// Failure classifies fatal debrid errors so callers can tell the user what
// went wrong. Failure values are errors and match with errors.Is.
type Failure int

const (
	FailureNone Failure = iota
	FailureAccessDenied
	FailureContentFlagged
	FailureQuotaExceeded
	FailurePayloadTooLarge
	FailureTransferFailed
	FailureConversionFailed
	FailureRateLimited
	FailureGeneric
)

// Failures lists every failure a resolution can end with.
var Failures = []Failure{
	FailureAccessDenied,
	FailureContentFlagged,
	FailureQuotaExceeded,
	FailurePayloadTooLarge,
	FailureTransferFailed,
	FailureConversionFailed,
	FailureRateLimited,
	FailureGeneric,
}

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureAccessDenied:
		return "access_denied"
	case FailureContentFlagged:
		return "content_flagged"
	case FailureQuotaExceeded:
		return "quota_exceeded"
	case FailurePayloadTooLarge:
		return "payload_too_large"
	case FailureTransferFailed:
		return "transfer_failed"
	case FailureConversionFailed:
		return "conversion_failed"
	case FailureRateLimited:
		return "rate_limited"
	default:
		return "generic"
	}
}

func (f Failure) Error() string {
	return "debrid: " + f.String()
}

// ProviderError is a provider failure mapped onto the taxonomy.
type ProviderError struct {
	Provider string
	Code     string
	Failure  Failure
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Failure)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Failure}
	}
	return []error{e.Failure, e.Err}
}

// FailureOf extracts the failure of err. Errors outside the taxonomy are
// generic, nil is FailureNone.
func FailureOf(err error) Failure {
	if err == nil {
		return FailureNone
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Failure != FailureNone {
		return pe.Failure
	}
	var f Failure
	if errors.As(err, &f) && f != FailureNone {
		return f
	}
	return FailureGeneric
}
