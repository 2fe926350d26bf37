package schema

import (
	"reflect"
	"testing"
	"time"
)

func TestDetectQuality(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "2160p", title: "Dune.Part.Two.2024.2160p.WEB-DL.DDP5.1", want: Quality2160p},
		{name: "4k keyword", title: "Dune Part Two 2024 4K HDR", want: Quality2160p},
		{name: "1080p", title: "Breaking.Bad.S05E14.1080p.BluRay", want: Quality1080p},
		{name: "720p", title: "Breaking Bad S05E14 720p HDTV", want: Quality720p},
		{name: "dvdrip", title: "Il Padrino (1972) DVDRip ITA", want: Quality480p},
		{name: "cam", title: "Some.Movie.2024.HDCAM.x264", want: QualityCam},
		{name: "unknown", title: "Some Movie 2024", want: QualityUnknown},
		{name: "does not confuse 1080 in hash-like words", title: "Movie.x1080y", want: QualityUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectQuality(tt.title); got != tt.want {
				t.Errorf("DetectQuality(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestQualityTierOrdering(t *testing.T) {
	ladder := []string{Quality2160p, Quality1080p, Quality720p, Quality480p, QualityCam, QualityUnknown, "weird"}
	for i := 0; i < len(ladder)-2; i++ {
		if QualityTier(ladder[i]) <= QualityTier(ladder[i+1]) {
			t.Errorf("tier(%q) = %d should be above tier(%q) = %d", ladder[i], QualityTier(ladder[i]), ladder[i+1], QualityTier(ladder[i+1]))
		}
	}
	if QualityTier("weird") != QualityTier(QualityUnknown) {
		t.Errorf("unknown tags should share the lowest tier")
	}
}

func TestUsableOnly(t *testing.T) {
	cands := []Candidate{
		{Title: "ok", InfoHash: " 0123456789ABCDEF0123456789ABCDEF01234567 "},
		{Title: "short", InfoHash: "0123456789abcdef"},
		{Title: "missing"},
		{Title: "exactly 32", InfoHash: "0123456789abcdef0123456789abcdef"},
	}

	got := UsableOnly(cands)
	if len(got) != 2 {
		t.Fatalf("UsableOnly() kept %d candidates, want 2", len(got))
	}
	if got[0].InfoHash != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("hash not normalized: %q", got[0].InfoHash)
	}
	if cands[0].InfoHash == got[0].InfoHash {
		t.Errorf("input slice was modified")
	}
}

func TestParseMediaID(t *testing.T) {
	type args struct {
		contentType string
		id          string
	}
	tests := []struct {
		name    string
		args    args
		want    MediaID
		wantErr bool
	}{
		{
			name: "movie",
			args: args{contentType: "movie", id: "tt0068646"},
			want: MediaID{Kind: KindMovie, ImdbID: "tt0068646"},
		},
		{
			name: "series episode",
			args: args{contentType: "series", id: "tt0903747:5:14"},
			want: MediaID{Kind: KindSeries, ImdbID: "tt0903747", Season: IntPtr(5), Episode: IntPtr(14)},
		},
		{
			name: "kitsu episode",
			args: args{contentType: "series", id: "kitsu:12:163.json"},
			want: MediaID{Kind: KindAnime, KitsuID: "12", Episode: IntPtr(163)},
		},
		{
			name:    "garbage",
			args:    args{contentType: "movie", id: "nope"},
			wantErr: true,
		},
		{
			name:    "bad season",
			args:    args{contentType: "series", id: "tt1:x:1"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMediaID(tt.args.contentType, tt.args.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMediaID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMediaID() = %+v, want %+v", got, tt.want)
			}
			if got.String() != trimJSON(tt.args.id) {
				t.Errorf("String() = %q, want %q", got.String(), trimJSON(tt.args.id))
			}
		})
	}
}

func trimJSON(s string) string {
	if len(s) > 5 && s[len(s)-5:] == ".json" {
		return s[:len(s)-5]
	}
	return s
}

func TestCacheEntryFresh(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	if !(CacheEntry{CheckedAt: now.Add(-6 * 24 * time.Hour)}).Fresh(now, window) {
		t.Errorf("entry inside the window should be fresh")
	}
	if (CacheEntry{CheckedAt: now.Add(-8 * 24 * time.Hour), Cached: true}).Fresh(now, window) {
		t.Errorf("entry outside the window should be stale")
	}
	if (CacheEntry{}).Fresh(now, window) {
		t.Errorf("zero entry should never be fresh")
	}
}

func TestGetLanguageFromString(t *testing.T) {
	if l := GetLanguageFromString("Italiano"); l == nil || *l != LanguageItalian {
		t.Errorf("GetLanguageFromString(Italiano) = %v", l)
	}
	if l := GetLanguageFromString("por"); l == nil || *l != LanguagePortuguese {
		t.Errorf("GetLanguageFromString(por) = %v", l)
	}
	if l := GetLanguageFromString("klingon"); l != nil {
		t.Errorf("GetLanguageFromString(klingon) = %v, want nil", *l)
	}
}

func TestShortTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Star Wars: A New Hope", "Star Wars"},
		{"Mission Impossible - Fallout", "Mission Impossible"},
		{"Spider-Man: No Way Home", "Spider-Man"},
		{"Spider-Man", "Spider-Man"},
		{"Gomorra – La serie", "Gomorra"},
		{"Breaking Bad", "Breaking Bad"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := ShortTitle(tt.title); got != tt.want {
				t.Errorf("ShortTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestAllTitles(t *testing.T) {
	q := MediaQuery{Titles: []string{"The Godfather", " ", "the godfather"}, LocalizedTitle: "Il Padrino"}
	want := []string{"The Godfather", "Il Padrino"}
	if got := q.AllTitles(); !reflect.DeepEqual(got, want) {
		t.Errorf("AllTitles() = %v, want %v", got, want)
	}
}
