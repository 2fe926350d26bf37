package debrid

// State is the lifecycle state of one resolution job.
type State int

const (
	StateUnknown State = iota
	StateExisting
	StateNew
	StateFileSelectionPending
	StateQueued
	StateDownloading
	StateReady
	StateResolved
	StateError
)

func (s State) String() string {
	switch s {
	case StateExisting:
		return "existing"
	case StateNew:
		return "new"
	case StateFileSelectionPending:
		return "file_selection_pending"
	case StateQueued:
		return "queued"
	case StateDownloading:
		return "downloading"
	case StateReady:
		return "ready"
	case StateResolved:
		return "resolved"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// OutcomeKind is what the caller gets back from a resolution.
type OutcomeKind int

const (
	OutcomeFailed OutcomeKind = iota
	OutcomePending
	OutcomeResolved
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeResolved:
		return "resolved"
	case OutcomePending:
		return "pending"
	default:
		return "failed"
	}
}

// Outcome is the result of driving a job as far as it goes without waiting.
type Outcome struct {
	Kind      OutcomeKind
	State     State
	URL       string
	JobID     string
	FileIndex *int
	Err       error
}

// Failure is the taxonomy member of a failed outcome, FailureNone otherwise.
func (o Outcome) Failure() Failure {
	if o.Kind != OutcomeFailed {
		return FailureNone
	}
	return FailureOf(o.Err)
}

func resolved(jobID, url string, fileIndex int) Outcome {
	return Outcome{Kind: OutcomeResolved, State: StateResolved, URL: url, JobID: jobID, FileIndex: &fileIndex}
}

func pending(jobID string, state State) Outcome {
	return Outcome{Kind: OutcomePending, State: state, JobID: jobID}
}

func failed(jobID string, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, State: StateError, JobID: jobID, Err: err}
}
