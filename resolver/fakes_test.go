package resolver

import (
	"context"
	"errors"
	"sync"

	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/schema"
	"github.com/felipemarinho97/torrent-resolver/store"
)

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu sync.Mutex

	byID     []schema.Candidate
	season   []schema.Candidate
	episodes []schema.Candidate
	text     []schema.Candidate
	states   map[string]schema.CacheEntry
	fail     bool

	episodeKeys []store.EpisodeKey
	textQueries []string
	upserted    []schema.Candidate
	savedStates []schema.CacheEntry
	repaired    []string
	hinted      []schema.EpisodeFile
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) err() error {
	if f.fail {
		return errStoreDown
	}
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, imdbID, kitsuID string) ([]schema.Candidate, error) {
	return f.byID, f.err()
}

func (f *fakeStore) FindSeasonTorrents(ctx context.Context, imdbID string, season int) ([]schema.Candidate, error) {
	return f.season, f.err()
}

func (f *fakeStore) FindEpisodeFiles(ctx context.Context, key store.EpisodeKey) ([]schema.Candidate, error) {
	f.mu.Lock()
	f.episodeKeys = append(f.episodeKeys, key)
	f.mu.Unlock()
	return f.episodes, f.err()
}

func (f *fakeStore) SearchText(ctx context.Context, text string, kind schema.MediaKind, limit int) ([]schema.Candidate, error) {
	f.mu.Lock()
	f.textQueries = append(f.textQueries, text)
	f.mu.Unlock()
	return f.text, f.err()
}

func (f *fakeStore) UpsertTorrents(ctx context.Context, kind schema.MediaKind, cands []schema.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, cands...)
	return f.err()
}

func (f *fakeStore) UpsertEpisodeFiles(ctx context.Context, files []schema.EpisodeFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hinted = append(f.hinted, files...)
	return f.err()
}

func (f *fakeStore) CacheStates(ctx context.Context, provider string, hashes []string) (map[string]schema.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]schema.CacheEntry{}
	for _, h := range hashes {
		if e, ok := f.states[provider+"|"+h]; ok {
			out[h] = e
		}
	}
	return out, f.err()
}

func (f *fakeStore) UpsertCacheStates(ctx context.Context, entries []schema.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedStates = append(f.savedStates, entries...)
	return f.err()
}

func (f *fakeStore) RepairIdentifiers(ctx context.Context, hashes []string, imdbID, kitsuID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repaired = append(f.repaired, hashes...)
	return int64(len(hashes)), f.err()
}

func (f *fakeStore) Close() error { return nil }

type fakeIndex struct {
	enabled bool
	found   []schema.Candidate
	err     error
	indexed []schema.Candidate
}

func (f *fakeIndex) IsEnabled() bool { return f.enabled }

func (f *fakeIndex) IndexCandidates(ctx context.Context, kind schema.MediaKind, cands []schema.Candidate) error {
	f.indexed = append(f.indexed, cands...)
	return nil
}

func (f *fakeIndex) SearchCandidates(ctx context.Context, query string, kind schema.MediaKind, limit int) ([]schema.Candidate, error) {
	return f.found, f.err
}

type fakeLive struct {
	results []schema.Candidate
	calls   int
	queries []string
}

func (f *fakeLive) Collect(ctx context.Context, queries []string, kind schema.MediaKind) []schema.Candidate {
	f.calls++
	f.queries = append(f.queries, queries...)
	return f.results
}

type fakeMeta struct {
	mu    sync.Mutex
	q     schema.MediaQuery
	err   error
	calls int
}

func (f *fakeMeta) Resolve(ctx context.Context, id schema.MediaID) (schema.MediaQuery, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.q, f.err
}

// fakeDebrid serves one ready job holding files.
type fakeDebrid struct {
	mu sync.Mutex

	name    string
	cached  map[string]bool
	asked   []string
	files   []schema.File
	release chan struct{}
	lists   int
}

func (f *fakeDebrid) Name() string                { return f.name }
func (f *fakeDebrid) RequiresFileSelection() bool { return false }
func (f *fakeDebrid) BatchLimit() int             { return 100 }

func (f *fakeDebrid) CheckBulkCache(ctx context.Context, hashes []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, hashes...)
	out := map[string]bool{}
	for _, h := range hashes {
		out[h] = f.cached[h]
	}
	return out, nil
}

func (f *fakeDebrid) FindOrCreateJob(ctx context.Context, magnet string) (string, error) {
	return "job", nil
}

func (f *fakeDebrid) ListJobs(ctx context.Context) ([]debrid.Job, error) {
	f.mu.Lock()
	f.lists++
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return nil, nil
}

func (f *fakeDebrid) SelectFiles(ctx context.Context, jobID string, fileIndexes []int) error {
	return nil
}

func (f *fakeDebrid) GetJobInfo(ctx context.Context, jobID string) (debrid.JobInfo, error) {
	links := make([]string, len(f.files))
	for i := range f.files {
		links[i] = "link" + string(rune('a'+i))
	}
	return debrid.JobInfo{ID: jobID, Status: debrid.StatusReady, Files: f.files, Links: links}, nil
}

func (f *fakeDebrid) Unrestrict(ctx context.Context, link string) (string, error) {
	return "https://cdn.example/" + link, nil
}

func (f *fakeDebrid) DeleteJob(ctx context.Context, jobID string) error { return nil }
