package debrid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/magnet"
	"github.com/felipemarinho97/torrent-resolver/monitoring"
	"github.com/felipemarinho97/torrent-resolver/packfile"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

// Recorder persists what a successful resolution learned.
type Recorder interface {
	UpsertCacheStates(ctx context.Context, entries []schema.CacheEntry) error
	UpsertEpisodeFiles(ctx context.Context, files []schema.EpisodeFile) error
}

// Request asks for a stream of one torrent.
type Request struct {
	InfoHash string
	Magnet   string
	Query    schema.MediaQuery
	// FileIndex is a file position computed ahead of time, if any.
	FileIndex *int
}

// Machine drives provider jobs through their lifecycle. It never waits for a
// download: a job still in progress yields a pending outcome.
type Machine struct {
	recorder  Recorder
	sizeFloor int64
	metrics   *monitoring.Metrics
	now       func() time.Time
}

func NewMachine(recorder Recorder, sizeFloor int64, metrics *monitoring.Metrics) *Machine {
	return &Machine{recorder: recorder, sizeFloor: sizeFloor, metrics: metrics, now: time.Now}
}

// Resolve moves the job of req on p as far as it can go and reports where it
// stopped.
func (m *Machine) Resolve(ctx context.Context, p Provider, req Request) Outcome {
	req.InfoHash = schema.NormalizeHash(req.InfoHash)
	if linkIndexed(p) {
		req.FileIndex = nil
	}
	out := m.run(ctx, p, req)

	m.metrics.Outcome(p.Name(), out.Kind.String())
	event := logging.DebugCtx(ctx)
	if out.Kind == OutcomeFailed {
		event = logging.WarnCtx(ctx).Err(out.Err).Str("failure", out.Failure().String())
	}
	event.Str("provider", p.Name()).
		Str("info_hash", req.InfoHash).
		Str("state", out.State.String()).
		Str("outcome", out.Kind.String()).
		Msg("Debrid resolution finished")
	return out
}

func (m *Machine) run(ctx context.Context, p Provider, req Request) Outcome {
	if req.Magnet == "" {
		uri, err := magnet.Build(req.InfoHash, req.Query.PrimaryTitle(), nil)
		if err != nil {
			return failed("", err)
		}
		req.Magnet = uri
	}

	lookup, recreated := true, false
	for {
		jobID, state, err := m.acquire(ctx, p, req, lookup)
		if err != nil {
			return failed(jobID, err)
		}
		logging.DebugCtx(ctx).Str("provider", p.Name()).Str("job_id", jobID).Str("state", state.String()).Msg("Acquired debrid job")

		m.metrics.DebridCall(p.Name(), "info")
		info, err := p.GetJobInfo(ctx, jobID)
		if err != nil {
			return failed(jobID, err)
		}

		if info.Status == StatusWaitingFiles && p.RequiresFileSelection() {
			if err := m.selectFiles(ctx, p, jobID, info.Files, req); err != nil {
				return failed(jobID, err)
			}
			// cached torrents are ready as soon as files are selected
			m.metrics.DebridCall(p.Name(), "info")
			if info, err = p.GetJobInfo(ctx, jobID); err != nil {
				return failed(jobID, err)
			}
		}

		switch info.Status {
		case StatusReady:
		case StatusWaitingFiles:
			return pending(jobID, StateFileSelectionPending)
		case StatusQueued:
			return pending(jobID, StateQueued)
		case StatusDownloading:
			return pending(jobID, StateDownloading)
		case StatusError:
			f := info.Failure
			if f == FailureNone {
				f = FailureGeneric
			}
			return failed(jobID, &ProviderError{Provider: p.Name(), Code: info.StatusText, Failure: f})
		default:
			return failed(jobID, &ProviderError{Provider: p.Name(), Code: info.StatusText, Failure: FailureGeneric, Err: errors.New("indeterminate job status")})
		}

		if !recreated && p.RequiresFileSelection() && m.incompleteSelection(info.Files, req.Query) {
			logging.InfoCtx(ctx).Str("provider", p.Name()).Str("job_id", jobID).Msg("Recreating job with incomplete file selection")
			m.metrics.DebridCall(p.Name(), "delete")
			if err := p.DeleteJob(ctx, jobID); err != nil {
				return failed(jobID, err)
			}
			lookup, recreated = false, true
			continue
		}

		return m.finish(ctx, p, jobID, info, req)
	}
}

// acquire finds a reusable job for the torrent or creates one.
func (m *Machine) acquire(ctx context.Context, p Provider, req Request, lookup bool) (string, State, error) {
	if lookup {
		job, ok, err := m.findJob(ctx, p, req.InfoHash)
		if err != nil {
			return "", StateUnknown, err
		}
		if ok {
			return job.ID, StateExisting, nil
		}
	}

	m.metrics.DebridCall(p.Name(), "create")
	id, err := p.FindOrCreateJob(ctx, req.Magnet)
	if errors.Is(err, ErrJobExists) {
		job, ok, lerr := m.findJob(ctx, p, req.InfoHash)
		if lerr != nil {
			return "", StateUnknown, lerr
		}
		if !ok {
			return "", StateUnknown, &ProviderError{Provider: p.Name(), Failure: FailureGeneric, Err: fmt.Errorf("%w but is not listed", ErrJobExists)}
		}
		return job.ID, StateExisting, nil
	}
	if err != nil {
		return "", StateUnknown, err
	}
	return id, StateNew, nil
}

func (m *Machine) findJob(ctx context.Context, p Provider, hash string) (Job, bool, error) {
	m.metrics.DebridCall(p.Name(), "list")
	jobs, err := p.ListJobs(ctx)
	if err != nil {
		return Job{}, false, err
	}
	job, ok := lo.Find(jobs, func(j Job) bool {
		return schema.NormalizeHash(j.InfoHash) == hash && j.Status != StatusError
	})
	return job, ok, nil
}

func (m *Machine) selectFiles(ctx context.Context, p Provider, jobID string, files []schema.File, req Request) error {
	videos := packfile.Plausible(files, m.sizeFloor)
	if len(videos) == 0 {
		return &ProviderError{Provider: p.Name(), Failure: FailureGeneric, Err: ErrNoVideo}
	}

	var indexes []int
	if isEpisodic(req.Query) {
		// the whole pack, so the job serves the other episodes too
		indexes = lo.Map(videos, func(f schema.File, _ int) int { return f.Index })
	} else {
		idx, _ := m.chooseFile(videos, req)
		indexes = []int{idx}
	}

	m.metrics.DebridCall(p.Name(), "select")
	return p.SelectFiles(ctx, jobID, indexes)
}

// chooseFile picks the file to stream among plausible videos: a precomputed
// index, then the episode, then the best pack match, then the largest file.
func (m *Machine) chooseFile(videos []schema.File, req Request) (int, bool) {
	if len(videos) == 0 {
		return 0, false
	}
	if req.FileIndex != nil {
		if lo.ContainsBy(videos, func(f schema.File) bool { return f.Index == *req.FileIndex }) {
			return *req.FileIndex, true
		}
	}

	q := req.Query
	switch {
	case q.Kind == schema.KindAnime:
		if ep, ok := q.AbsoluteNumber(); ok {
			if idx, ok := packfile.FindAbsolute(videos, ep, q.AllTitles()...); ok {
				return idx, true
			}
		}
	case q.IsEpisodic():
		if idx, ok := packfile.FindEpisode(videos, *q.Season, *q.Episode); ok {
			return idx, true
		}
	case len(videos) > 1:
		if idx, ok := packfile.Match(videos, packfile.TargetFor(q)); ok {
			return idx, true
		}
	}
	return packfile.Largest(videos)
}

// incompleteSelection reports a series job with far fewer selected videos than
// it holds.
func (m *Machine) incompleteSelection(files []schema.File, q schema.MediaQuery) bool {
	if !isEpisodic(q) {
		return false
	}
	videos := packfile.Plausible(files, m.sizeFloor)
	selected := lo.CountBy(videos, func(f schema.File) bool { return f.Selected })
	return len(videos) >= 2 && selected*2 < len(videos)
}

func (m *Machine) finish(ctx context.Context, p Provider, jobID string, info JobInfo, req Request) Outcome {
	selected := info.SelectedFiles()
	idx, ok := m.chooseFile(packfile.Plausible(selected, m.sizeFloor), req)
	if !ok {
		return failed(jobID, &ProviderError{Provider: p.Name(), Failure: FailureGeneric, Err: ErrNoVideo})
	}

	// links follow the selected files, not the whole torrent
	pos := lo.IndexOf(lo.Map(selected, func(f schema.File, _ int) int { return f.Index }), idx)
	if pos < 0 || pos >= len(info.Links) {
		return failed(jobID, &ProviderError{
			Provider: p.Name(),
			Failure:  FailureGeneric,
			Err:      fmt.Errorf("no link for file %d (%d links, %d selected files)", idx, len(info.Links), len(selected)),
		})
	}

	m.metrics.DebridCall(p.Name(), "unrestrict")
	url, err := p.Unrestrict(ctx, info.Links[pos])
	if err != nil {
		return failed(jobID, err)
	}

	files := info.Files
	if linkIndexed(p) {
		// these indexes do not address torrent files
		files = nil
	}
	m.record(ctx, p.Name(), req, files, idx)
	return resolved(jobID, url, idx)
}

// record writes the positive cache state and the episode files of the job.
// Failures are logged: the stream is already resolved.
func (m *Machine) record(ctx context.Context, provider string, req Request, files []schema.File, chosen int) {
	if m.recorder == nil {
		return
	}

	entry := schema.CacheEntry{InfoHash: req.InfoHash, Provider: provider, Cached: true, CheckedAt: m.now()}
	if err := m.recorder.UpsertCacheStates(ctx, []schema.CacheEntry{entry}); err != nil {
		logging.WarnCtx(ctx).Err(err).Str("info_hash", req.InfoHash).Msg("Failed to save cache state")
	}

	episodes := m.episodeFiles(req, files, chosen)
	if len(episodes) == 0 {
		return
	}
	if err := m.recorder.UpsertEpisodeFiles(ctx, episodes); err != nil {
		logging.WarnCtx(ctx).Err(err).Str("info_hash", req.InfoHash).Msg("Failed to save episode files")
	}
}

func (m *Machine) episodeFiles(req Request, files []schema.File, chosen int) []schema.EpisodeFile {
	q := req.Query
	switch {
	case q.Kind == schema.KindAnime && q.KitsuID != "":
		// season numbers inside anime packs do not map to absolute episodes
		ep, ok := q.AbsoluteNumber()
		f, found := lo.Find(files, func(f schema.File) bool { return f.Index == chosen })
		if !ok || !found {
			return nil
		}
		return []schema.EpisodeFile{{
			InfoHash: req.InfoHash, KitsuID: q.KitsuID, Episode: ep,
			FileIndex: f.Index, FileName: f.Path, Size: f.Size,
		}}
	case q.Kind == schema.KindSeries && q.ImdbID != "":
		refs := packfile.EpisodeMap(packfile.Plausible(files, m.sizeFloor))
		return lo.Map(refs, func(r packfile.EpisodeRef, _ int) schema.EpisodeFile {
			return schema.EpisodeFile{
				InfoHash: req.InfoHash, ImdbID: q.ImdbID, Season: r.Season, Episode: r.Episode,
				FileIndex: r.FileIndex, FileName: r.FileName, Size: r.Size,
			}
		})
	}
	return nil
}

func isEpisodic(q schema.MediaQuery) bool {
	if q.Kind == schema.KindAnime {
		_, ok := q.AbsoluteNumber()
		return ok
	}
	return q.IsEpisodic()
}
