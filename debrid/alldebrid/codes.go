package alldebrid

import (
	"net/http"

	"github.com/felipemarinho97/torrent-resolver/debrid"
)

var errorCodes = map[string]debrid.Failure{
	"GENERIC":     debrid.FailureGeneric,
	"MAINTENANCE": debrid.FailureTransferFailed,
	"BAD_REQUEST": debrid.FailureGeneric,
	"NO_SERVER":   debrid.FailureAccessDenied,

	"AUTH_MISSING_AGENT":  debrid.FailureAccessDenied,
	"AUTH_BAD_AGENT":      debrid.FailureAccessDenied,
	"AUTH_MISSING_APIKEY": debrid.FailureAccessDenied,
	"AUTH_BAD_APIKEY":     debrid.FailureAccessDenied,
	"AUTH_BLOCKED":        debrid.FailureAccessDenied,
	"AUTH_USER_BANNED":    debrid.FailureAccessDenied,

	"MUST_BE_PREMIUM":          debrid.FailureAccessDenied,
	"FREE_TRIAL_LIMIT_REACHED": debrid.FailureQuotaExceeded,

	"LINK_IS_MISSING":         debrid.FailureGeneric,
	"LINK_HOST_NOT_SUPPORTED": debrid.FailureTransferFailed,
	"LINK_DOWN":               debrid.FailureTransferFailed,
	"LINK_PASS_PROTECTED":     debrid.FailureAccessDenied,
	"LINK_HOST_UNAVAILABLE":   debrid.FailureTransferFailed,
	"LINK_TOO_MANY_DOWNLOADS": debrid.FailureQuotaExceeded,
	"LINK_HOST_FULL":          debrid.FailureQuotaExceeded,
	"LINK_HOST_LIMIT_REACHED": debrid.FailureQuotaExceeded,
	"LINK_ERROR":              debrid.FailureTransferFailed,
	"LINK_NOT_SUPPORTED":      debrid.FailureTransferFailed,

	"MAGNET_NO_URI":             debrid.FailureConversionFailed,
	"MAGNET_INVALID_URI":        debrid.FailureConversionFailed,
	"MAGNET_INVALID_FILE":       debrid.FailureConversionFailed,
	"MAGNET_FILE_UPLOAD_FAILED": debrid.FailureTransferFailed,
	"MAGNET_NO_SERVER":          debrid.FailureAccessDenied,
	"MAGNET_MUST_BE_PREMIUM":    debrid.FailureAccessDenied,
	"MAGNET_TOO_MANY_ACTIVE":    debrid.FailureQuotaExceeded,
	"MAGNET_TOO_MANY":           debrid.FailureQuotaExceeded,
	"MAGNET_TOO_LARGE":          debrid.FailurePayloadTooLarge,
	"MAGNET_UPLOAD_FAILED":      debrid.FailureTransferFailed,
	"MAGNET_INTERNAL_ERROR":     debrid.FailureTransferFailed,
	"MAGNET_INVALID_ID":         debrid.FailureGeneric,
	"MAGNET_PROCESSING":         debrid.FailureTransferFailed,
}

// FailureForCode maps an API error code; unknown codes are generic.
func FailureForCode(code string) debrid.Failure {
	if f, ok := errorCodes[code]; ok {
		return f
	}
	return debrid.FailureGeneric
}

// FailureForHTTPStatus classifies errors that carry no API error code.
func FailureForHTTPStatus(status int) debrid.Failure {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return debrid.FailureAccessDenied
	case http.StatusTooManyRequests:
		return debrid.FailureRateLimited
	case http.StatusRequestEntityTooLarge:
		return debrid.FailurePayloadTooLarge
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return debrid.FailureTransferFailed
	default:
		return debrid.FailureGeneric
	}
}

type statusMapping struct {
	status  debrid.JobStatus
	failure debrid.Failure
}

// magnetStatuses maps every documented magnet statusCode.
var magnetStatuses = map[int]statusMapping{
	0:  {debrid.StatusQueued, debrid.FailureNone},            // in queue
	1:  {debrid.StatusDownloading, debrid.FailureNone},       // downloading
	2:  {debrid.StatusDownloading, debrid.FailureNone},       // compressing or moving
	3:  {debrid.StatusDownloading, debrid.FailureNone},       // uploading
	4:  {debrid.StatusReady, debrid.FailureNone},             // ready
	5:  {debrid.StatusError, debrid.FailureTransferFailed},   // upload fail
	6:  {debrid.StatusError, debrid.FailureConversionFailed}, // unpacking error
	7:  {debrid.StatusError, debrid.FailureTransferFailed},   // not downloaded in 20 minutes
	8:  {debrid.StatusError, debrid.FailurePayloadTooLarge},  // file too big
	9:  {debrid.StatusError, debrid.FailureGeneric},          // internal error
	10: {debrid.StatusError, debrid.FailureTransferFailed},   // download took more than 72 hours
	11: {debrid.StatusError, debrid.FailureContentFlagged},   // deleted on the hoster website
	12: {debrid.StatusError, debrid.FailureConversionFailed}, // processing failed
	13: {debrid.StatusError, debrid.FailureConversionFailed}, // processing failed
	14: {debrid.StatusError, debrid.FailureConversionFailed}, // error while contacting tracker
	15: {debrid.StatusError, debrid.FailureConversionFailed}, // no peer available
}

// MapStatus normalizes a magnet statusCode. Unknown codes are generic errors.
func MapStatus(code int) (debrid.JobStatus, debrid.Failure) {
	if m, ok := magnetStatuses[code]; ok {
		return m.status, m.failure
	}
	return debrid.StatusError, debrid.FailureGeneric
}
