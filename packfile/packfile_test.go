package packfile

import (
	"reflect"
	"testing"

	"github.com/samber/mo"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

func files(paths ...string) []schema.File {
	var out []schema.File
	for i, p := range paths {
		out = append(out, schema.File{Index: i, Path: p, Size: int64(1000 * (i + 1))})
	}
	return out
}

func TestMatchIlPadrino(t *testing.T) {
	fs := files("Il Padrino.mkv", "Il Padrino Parte II.mkv")
	target := Target{Localized: "Il Padrino Parte II", Original: "The Godfather Part II", Year: 1974}

	idx, ok := Match(fs, target)
	if !ok || idx != 1 {
		t.Fatalf("Match() = %d, %v, want 1, true", idx, ok)
	}
	if first, second := Score(fs[0].Path, target), Score(fs[1].Path, target); second <= first {
		t.Errorf("Score(second) = %v should beat Score(first) = %v", second, first)
	}
}

func TestMatchPrefersFirstMovieWithoutPart(t *testing.T) {
	fs := files(
		"Trilogia/Il Padrino (1972).mkv",
		"Trilogia/Il Padrino Parte II (1974).mkv",
		"Trilogia/Il Padrino Parte III (1990).mkv",
		"Trilogia/Il Padrino.nfo",
	)
	idx, ok := Match(fs, Target{Localized: "Il Padrino", Original: "The Godfather", Year: 1972})
	if !ok || idx != 0 {
		t.Errorf("Match() = %d, %v, want 0, true", idx, ok)
	}
	idx, ok = Match(fs, Target{Localized: "Il Padrino Parte III", Original: "The Godfather Part III", Year: 1990})
	if !ok || idx != 2 {
		t.Errorf("Match() = %d, %v, want 2, true", idx, ok)
	}
}

func TestMatchNoSelection(t *testing.T) {
	fs := files("random.mkv", "other.mp4", "Il Padrino.txt")
	if _, ok := Match(fs, Target{Localized: "Il Padrino", Original: "The Godfather"}); ok {
		t.Errorf("Match() should select nothing when every score is zero")
	}
}

func TestMatchTieKeepsFirst(t *testing.T) {
	fs := files("CD1/Heat.avi", "CD2/Heat.avi")
	if idx, ok := Match(fs, Target{Localized: "Heat", Original: "Heat"}); !ok || idx != 0 {
		t.Errorf("Match() = %d, %v, want 0, true", idx, ok)
	}
}

func TestPartNumber(t *testing.T) {
	tests := []struct {
		title string
		want  mo.Option[int]
	}{
		{"Il Padrino Parte II", mo.Some(2)},
		{"The Godfather Part 3", mo.Some(3)},
		{"Kill Bill Vol. 1", mo.Some(1)},
		{"Rocky IV", mo.Some(4)},
		{"Toy Story 3 (2010)", mo.Some(3)},
		{"Blade Runner 2049", mo.None[int]()},
		{"Il Padrino (1972)", mo.None[int]()},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := PartNumber(tt.title); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PartNumber(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestPlausible(t *testing.T) {
	fs := []schema.File{
		{Index: 0, Path: "Show/S01E01.mkv", Size: 500},
		{Index: 1, Path: "Show/Sample/sample.mkv", Size: 10},
		{Index: 2, Path: "Show/info.nfo", Size: 1},
		{Index: 3, Path: "Show/Extras/Behind the Scenes.mp4", Size: 900},
		{Index: 4, Path: "Show/S01E02.MP4", Size: 400},
	}
	got := Plausible(fs, 800)
	var idx []int
	for _, f := range got {
		idx = append(idx, f.Index)
	}
	if want := []int{0, 3, 4}; !reflect.DeepEqual(idx, want) {
		t.Errorf("Plausible() = %v, want %v", idx, want)
	}
}

func TestLargest(t *testing.T) {
	if _, ok := Largest(nil); ok {
		t.Errorf("Largest(nil) should report no file")
	}
	fs := []schema.File{{Index: 4, Size: 10}, {Index: 7, Size: 30}, {Index: 9, Size: 30}}
	if idx, ok := Largest(fs); !ok || idx != 7 {
		t.Errorf("Largest() = %d, want 7", idx)
	}
}

func TestFindEpisodeAndMap(t *testing.T) {
	fs := files(
		"Breaking Bad S05/Breaking.Bad.S05E13.mkv",
		"Breaking Bad S05/Breaking.Bad.S05E14.mkv",
		"Breaking Bad S05/Breaking.Bad.5x15.mkv",
		"Breaking Bad S05/poster.jpg",
	)
	if idx, ok := FindEpisode(fs, 5, 14); !ok || idx != 1 {
		t.Errorf("FindEpisode() = %d, %v, want 1", idx, ok)
	}
	if _, ok := FindEpisode(fs, 5, 16); ok {
		t.Errorf("FindEpisode() found a missing episode")
	}

	got := EpisodeMap(fs)
	want := []EpisodeRef{
		{Season: 5, Episode: 13, FileIndex: 0, FileName: fs[0].Path, Size: 1000},
		{Season: 5, Episode: 14, FileIndex: 1, FileName: fs[1].Path, Size: 2000},
		{Season: 5, Episode: 15, FileIndex: 2, FileName: fs[2].Path, Size: 3000},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EpisodeMap() = %+v, want %+v", got, want)
	}
}

func TestFindAbsolute(t *testing.T) {
	fs := files("[Group] One Piece - 162.mkv", "[Group] One Piece - 163.mkv")
	if idx, ok := FindAbsolute(fs, 163, "One Piece"); !ok || idx != 1 {
		t.Errorf("FindAbsolute() = %d, %v, want 1", idx, ok)
	}
}

func TestFindAbsoluteIgnoresAudioTags(t *testing.T) {
	fs := files(
		"[Group] Frieren - 03 [1080p DDP5.1].mkv",
		"[Group] Frieren - 01 [1080p DDP5.1].mkv",
		"[Group] Frieren - 02 [1080p AAC2.0 H.264].mkv",
	)
	tests := []struct {
		episode int
		want    int
		found   bool
	}{
		{1, 1, true},
		{2, 2, true},
		{3, 0, true},
		{5, 0, false},
		{264, 0, false},
	}
	for _, tt := range tests {
		idx, ok := FindAbsolute(fs, tt.episode, "Frieren")
		if ok != tt.found || (ok && idx != tt.want) {
			t.Errorf("FindAbsolute(%d) = %d, %v, want %d, %v", tt.episode, idx, ok, tt.want, tt.found)
		}
	}
}
