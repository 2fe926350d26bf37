package realdebrid

import (
	"net/http"

	"github.com/felipemarinho97/torrent-resolver/debrid"
)

// codeTorrentActive is returned when adding a torrent that already has a job.
const codeTorrentActive = 33

// errorCodes maps every documented API error code onto the failure taxonomy.
var errorCodes = map[int]debrid.Failure{
	-1: debrid.FailureGeneric,          // internal error
	1:  debrid.FailureGeneric,          // missing parameter
	2:  debrid.FailureGeneric,          // bad parameter value
	3:  debrid.FailureGeneric,          // unknown method
	4:  debrid.FailureGeneric,          // method not allowed
	5:  debrid.FailureRateLimited,      // slow down
	6:  debrid.FailureTransferFailed,   // resource unreachable
	7:  debrid.FailureGeneric,          // resource not found
	8:  debrid.FailureAccessDenied,     // bad token
	9:  debrid.FailureAccessDenied,     // permission denied
	10: debrid.FailureAccessDenied,     // two-factor authentication needed
	11: debrid.FailureAccessDenied,     // two-factor authentication pending
	12: debrid.FailureAccessDenied,     // invalid login
	13: debrid.FailureAccessDenied,     // invalid password
	14: debrid.FailureAccessDenied,     // account locked
	15: debrid.FailureAccessDenied,     // account not activated
	16: debrid.FailureTransferFailed,   // unsupported hoster
	17: debrid.FailureTransferFailed,   // hoster in maintenance
	18: debrid.FailureQuotaExceeded,    // hoster limit reached
	19: debrid.FailureTransferFailed,   // hoster temporarily unavailable
	20: debrid.FailureAccessDenied,     // hoster not available for free users
	21: debrid.FailureQuotaExceeded,    // too many active downloads
	22: debrid.FailureAccessDenied,     // IP address not allowed
	23: debrid.FailureQuotaExceeded,    // traffic exhausted
	24: debrid.FailureTransferFailed,   // file unavailable
	25: debrid.FailureTransferFailed,   // service unavailable
	26: debrid.FailurePayloadTooLarge,  // upload too big
	27: debrid.FailureTransferFailed,   // upload error
	28: debrid.FailureContentFlagged,   // file not allowed
	29: debrid.FailurePayloadTooLarge,  // torrent too big
	30: debrid.FailureConversionFailed, // torrent file invalid
	31: debrid.FailureGeneric,          // action already done
	32: debrid.FailureGeneric,          // image resolution error
	33: debrid.FailureGeneric,          // torrent already active, see codeTorrentActive
	34: debrid.FailureRateLimited,      // too many requests
	35: debrid.FailureContentFlagged,   // infringing file
	36: debrid.FailureQuotaExceeded,    // fair usage limit
}

// FailureForCode maps an API error code; unknown codes are generic.
func FailureForCode(code int) debrid.Failure {
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

// torrentStatuses maps every documented torrent status.
var torrentStatuses = map[string]statusMapping{
	"magnet_error":            {debrid.StatusError, debrid.FailureConversionFailed},
	"magnet_conversion":       {debrid.StatusQueued, debrid.FailureNone},
	"waiting_files_selection": {debrid.StatusWaitingFiles, debrid.FailureNone},
	"queued":                  {debrid.StatusQueued, debrid.FailureNone},
	"downloading":             {debrid.StatusDownloading, debrid.FailureNone},
	"compressing":             {debrid.StatusDownloading, debrid.FailureNone},
	"uploading":               {debrid.StatusDownloading, debrid.FailureNone},
	"downloaded":              {debrid.StatusReady, debrid.FailureNone},
	"error":                   {debrid.StatusError, debrid.FailureTransferFailed},
	"dead":                    {debrid.StatusError, debrid.FailureTransferFailed},
	"virus":                   {debrid.StatusError, debrid.FailureContentFlagged},
}

// MapStatus normalizes a torrent status. Unknown statuses are generic errors.
func MapStatus(s string) (debrid.JobStatus, debrid.Failure) {
	if m, ok := torrentStatuses[s]; ok {
		return m.status, m.failure
	}
	return debrid.StatusError, debrid.FailureGeneric
}
