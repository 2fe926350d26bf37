// Package debrid turns a torrent into a direct stream URL through a debrid
// provider.
package debrid

import (
	"context"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

// Provider is the capability set of one debrid service. Implementations map
// their own statuses and error codes onto JobStatus and Failure.
type Provider interface {
	Name() string
	// RequiresFileSelection reports whether jobs wait for an explicit file
	// selection before downloading.
	RequiresFileSelection() bool
	// BatchLimit is the maximum number of hashes per CheckBulkCache call.
	BatchLimit() int

	CheckBulkCache(ctx context.Context, hashes []string) (map[string]bool, error)
	// FindOrCreateJob adds the magnet and returns the job id. Providers refusing
	// duplicates return ErrJobExists.
	FindOrCreateJob(ctx context.Context, magnet string) (string, error)
	ListJobs(ctx context.Context) ([]Job, error)
	// SelectFiles selects files by their position in the torrent.
	SelectFiles(ctx context.Context, jobID string, fileIndexes []int) error
	GetJobInfo(ctx context.Context, jobID string) (JobInfo, error)
	Unrestrict(ctx context.Context, link string) (string, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// LinkIndexed is implemented by providers whose file indexes are positions in
// the job's link list rather than in the torrent. Precomputed file indexes are
// ignored for them and their file lists are never recorded.
type LinkIndexed interface {
	LinkIndexed() bool
}

func linkIndexed(p Provider) bool {
	li, ok := p.(LinkIndexed)
	return ok && li.LinkIndexed()
}

// JobStatus is a provider job status normalized across providers.
type JobStatus int

const (
	StatusUnknown JobStatus = iota
	StatusWaitingFiles
	StatusQueued
	StatusDownloading
	StatusReady
	StatusError
)

func (s JobStatus) String() string {
	switch s {
	case StatusWaitingFiles:
		return "waiting_files"
	case StatusQueued:
		return "queued"
	case StatusDownloading:
		return "downloading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Job is one entry of a provider's job list.
type Job struct {
	ID       string
	InfoHash string
	Status   JobStatus
}

// JobInfo is the detailed state of a job. Files carry their position in the
// torrent as Index; Links follow the order of the selected files.
type JobInfo struct {
	ID         string
	InfoHash   string
	Status     JobStatus
	StatusText string
	Failure    Failure
	Progress   float64
	Files      []schema.File
	Links      []string
}

// SelectedFiles returns the selected files in torrent order.
func (i JobInfo) SelectedFiles() []schema.File {
	var out []schema.File
	for _, f := range i.Files {
		if f.Selected {
			out = append(out, f)
		}
	}
	return out
}
