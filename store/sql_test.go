package store

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	hashC = "cccccccccccccccccccccccccccccccccccccccc"
)

func openTestStore(t *testing.T) *SQL {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestUpsertTorrentsMergesRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := []schema.Candidate{{
		Title:    "Breaking.Bad.S05.1080p.BluRay",
		InfoHash: hashA,
		Seeders:  120,
		Size:     40 << 30,
		Source:   "torznab",
		ImdbID:   "tt0903747",
		Season:   schema.IntPtr(5),
	}}
	if err := s.UpsertTorrents(ctx, schema.KindSeries, first); err != nil {
		t.Fatalf("UpsertTorrents() error = %v", err)
	}

	second := []schema.Candidate{{
		Title:    "Breaking Bad S05 1080p BluRay ITA",
		InfoHash: "  " + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		Seeders:  30,
		Source:   "indexer:bludv",
	}}
	if err := s.UpsertTorrents(ctx, schema.KindSeries, second); err != nil {
		t.Fatalf("UpsertTorrents() error = %v", err)
	}

	got, err := s.FindByID(ctx, "tt0903747", "")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("FindByID() returned %d rows, want 1", len(got))
	}
	c := got[0]
	if c.Seeders != 120 {
		t.Errorf("seeders = %d, want the maximum 120", c.Seeders)
	}
	if c.ImdbID != "tt0903747" {
		t.Errorf("imdb id = %q, a null write must not clear it", c.ImdbID)
	}
	if c.Size != 40<<30 {
		t.Errorf("size = %d, a zero size must not clear it", c.Size)
	}
	if c.Title != "Breaking Bad S05 1080p BluRay ITA" || c.Source != "indexer:bludv" {
		t.Errorf("title/source = %q/%q, want the latest write", c.Title, c.Source)
	}
	if c.Season == nil || *c.Season != 5 {
		t.Errorf("season = %v, want 5", c.Season)
	}
	if c.Quality != schema.Quality1080p {
		t.Errorf("quality = %q, want %q", c.Quality, schema.Quality1080p)
	}
}

func TestUpsertTorrentsSkipsUnusable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.UpsertTorrents(ctx, schema.KindMovie, []schema.Candidate{
		{Title: "no hash", ImdbID: "tt1"},
		{Title: "short", InfoHash: "abc", ImdbID: "tt1"},
	})
	if err != nil {
		t.Fatalf("UpsertTorrents() error = %v", err)
	}
	got, err := s.FindByID(ctx, "tt1", "")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FindByID() = %v, want nothing stored", got)
	}
}

func TestFindSeasonTorrents(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.UpsertTorrents(ctx, schema.KindSeries, []schema.Candidate{
		{Title: "Show S01", InfoHash: hashA, ImdbID: "tt1", Season: schema.IntPtr(1), Seeders: 5},
		{Title: "Show S02", InfoHash: hashB, ImdbID: "tt1", Season: schema.IntPtr(2), Seeders: 9},
		{Title: "Show Complete Series", InfoHash: hashC, ImdbID: "tt1", Seeders: 1},
	})
	if err != nil {
		t.Fatalf("UpsertTorrents() error = %v", err)
	}

	got, err := s.FindSeasonTorrents(ctx, "tt1", 2)
	if err != nil {
		t.Fatalf("FindSeasonTorrents() error = %v", err)
	}
	var hashes []string
	for _, c := range got {
		hashes = append(hashes, c.InfoHash)
	}
	if want := []string{hashB, hashC}; !reflect.DeepEqual(hashes, want) {
		t.Errorf("FindSeasonTorrents() hashes = %v, want %v", hashes, want)
	}
}

func TestEpisodeFilesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.UpsertTorrents(ctx, schema.KindSeries, []schema.Candidate{
		{Title: "Breaking Bad S05 Complete", InfoHash: hashA, ImdbID: "tt0903747", Season: schema.IntPtr(5), Seeders: 50},
	})
	if err != nil {
		t.Fatalf("UpsertTorrents() error = %v", err)
	}
	err = s.UpsertEpisodeFiles(ctx, []schema.EpisodeFile{
		{InfoHash: hashA, ImdbID: "tt0903747", Season: 5, Episode: 13, FileIndex: 2, FileName: "S05E13.mkv", Size: 1000},
		{InfoHash: hashA, ImdbID: "tt0903747", Season: 5, Episode: 14, FileIndex: 3, FileName: "S05E14.mkv", Size: 2000},
		{InfoHash: hashB, ImdbID: "tt0903747", Season: 5, Episode: 14, FileIndex: 0, FileName: "orphan.mkv"},
	})
	if err != nil {
		t.Fatalf("UpsertEpisodeFiles() error = %v", err)
	}

	got, err := s.FindEpisodeFiles(ctx, EpisodeKey{ImdbID: "tt0903747", Season: 5, Episode: 14})
	if err != nil {
		t.Fatalf("FindEpisodeFiles() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("FindEpisodeFiles() returned %d rows, want 1 (files without a torrent row are skipped)", len(got))
	}
	if idx, ok := got[0].SelectedFile(); !ok || idx != 3 {
		t.Errorf("file index = %d, %v, want 3", idx, ok)
	}
	if want := []schema.File{{Index: 3, Path: "S05E14.mkv", Size: 2000, Selected: true}}; !reflect.DeepEqual(got[0].Files, want) {
		t.Errorf("files = %+v, want %+v", got[0].Files, want)
	}

	none, err := s.FindEpisodeFiles(ctx, EpisodeKey{})
	if err != nil || none != nil {
		t.Errorf("FindEpisodeFiles(empty key) = %v, %v, want nil, nil", none, err)
	}
}

func TestAnimeEpisodeFiles(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.UpsertTorrents(ctx, schema.KindAnime, []schema.Candidate{
		{Title: "[Group] One Piece 151-200", InfoHash: hashA, KitsuID: "12"},
	}); err != nil {
		t.Fatalf("UpsertTorrents() error = %v", err)
	}
	if err := s.UpsertEpisodeFiles(ctx, []schema.EpisodeFile{
		{InfoHash: hashA, KitsuID: "12", Episode: 163, FileIndex: 12, FileName: "One Piece - 163.mkv"},
	}); err != nil {
		t.Fatalf("UpsertEpisodeFiles() error = %v", err)
	}

	got, err := s.FindEpisodeFiles(ctx, EpisodeKey{KitsuID: "12", Episode: 163})
	if err != nil {
		t.Fatalf("FindEpisodeFiles() error = %v", err)
	}
	if len(got) != 1 || got[0].KitsuID != "12" {
		t.Fatalf("FindEpisodeFiles() = %+v, want the One Piece pack", got)
	}
}

func TestSearchText(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.UpsertTorrents(ctx, schema.KindMovie, []schema.Candidate{
		{Title: "Il.Padrino.1972.1080p.ITA", InfoHash: hashA, Seeders: 3},
		{Title: "Il Padrino Parte II 1974", InfoHash: hashB, Seeders: 7},
		{Title: "Padre Padrone 1977", InfoHash: hashC, Seeders: 100},
	}); err != nil {
		t.Fatalf("UpsertTorrents() error = %v", err)
	}

	tests := []struct {
		name string
		text string
		kind schema.MediaKind
		want []string
	}{
		{name: "all words must appear", text: "il padrino", kind: schema.KindMovie, want: []string{hashB, hashA}},
		{name: "case insensitive", text: "PADRE", want: []string{hashC}},
		{name: "kind filter", text: "padrino", kind: schema.KindSeries, want: nil},
		{name: "wildcards are not special", text: "% _", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SearchText(ctx, tt.text, tt.kind, 10)
			if err != nil {
				t.Fatalf("SearchText() error = %v", err)
			}
			var hashes []string
			for _, c := range got {
				hashes = append(hashes, c.InfoHash)
			}
			if !reflect.DeepEqual(hashes, tt.want) {
				t.Errorf("SearchText(%q) = %v, want %v", tt.text, hashes, tt.want)
			}
		})
	}
}

func TestCacheStates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	checked := time.Date(2025, 2, 27, 8, 0, 0, 0, time.UTC)
	err := s.UpsertCacheStates(ctx, []schema.CacheEntry{
		{InfoHash: hashA, Provider: "realdebrid", Cached: true, CheckedAt: checked},
		{InfoHash: hashB, Provider: "realdebrid", Cached: false, CheckedAt: checked},
		{InfoHash: hashA, Provider: "alldebrid", Cached: false, CheckedAt: checked},
	})
	if err != nil {
		t.Fatalf("UpsertCacheStates() error = %v", err)
	}
	// a later check overwrites the earlier one
	if err := s.UpsertCacheStates(ctx, []schema.CacheEntry{{InfoHash: hashB, Provider: "realdebrid", Cached: true}}); err != nil {
		t.Fatalf("UpsertCacheStates() error = %v", err)
	}

	got, err := s.CacheStates(ctx, "realdebrid", []string{hashA, strings.ToUpper(hashB), hashC})
	if err != nil {
		t.Fatalf("CacheStates() error = %v", err)
	}
	want := map[string]schema.CacheEntry{
		hashA: {InfoHash: hashA, Provider: "realdebrid", Cached: true, CheckedAt: checked},
		hashB: {InfoHash: hashB, Provider: "realdebrid", Cached: true, CheckedAt: s.now().UTC()},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CacheStates() = %+v, want %+v", got, want)
	}
}

func TestRepairIdentifiers(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.UpsertTorrents(ctx, schema.KindMovie, []schema.Candidate{
		{Title: "Il Padrino", InfoHash: hashA},
		{Title: "Il Padrino", InfoHash: hashB, ImdbID: "tt0068646"},
		{Title: "Other", InfoHash: hashC, ImdbID: "tt9999999"},
	}); err != nil {
		t.Fatalf("UpsertTorrents() error = %v", err)
	}

	n, err := s.RepairIdentifiers(ctx, []string{hashA, hashB, hashC}, "tt0068646", "")
	if err != nil {
		t.Fatalf("RepairIdentifiers() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RepairIdentifiers() changed %d rows, want 1", n)
	}

	got, err := s.FindByID(ctx, "tt0068646", "")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("FindByID() after repair returned %d rows, want 2", len(got))
	}
	other, _ := s.FindByID(ctx, "tt9999999", "")
	if len(other) != 1 {
		t.Errorf("an existing identifier must not be overwritten")
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT 1 WHERE a = ? AND b IN (` + placeholders(3) + `)`
	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("sqlite rebind changed the query: %q", got)
	}
	want := `SELECT 1 WHERE a = $1 AND b IN ($2,$3,$4)`
	if got := postgresDialect.rebind(q); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{driver: "", want: "sqlite"},
		{driver: "SQLite", want: "sqlite"},
		{driver: "postgresql", want: "postgres"},
		{driver: "pgx", want: "postgres"},
		{driver: "mysql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := dialectFor(tt.driver)
			if (err != nil) != tt.wantErr {
				t.Fatalf("dialectFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if d.name != tt.want {
				t.Errorf("dialectFor() = %q, want %q", d.name, tt.want)
			}
		})
	}
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Errorf("Ping() on a closed store succeeded")
	}
}
