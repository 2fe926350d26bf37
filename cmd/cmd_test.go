package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/felipemarinho97/torrent-resolver/config"
)

func TestVersionShort(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--short"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "unknown" {
		t.Errorf("version = %q, want the unset build tag", got)
	}
}

func TestNewDebridProviders(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want []string
	}{
		{"none", config.Config{}, nil},
		{"realdebrid", config.Config{RealDebridToken: "t"}, []string{"realdebrid"}},
		{"both", config.Config{RealDebridToken: "t", AllDebridKey: "k"}, []string{"realdebrid", "alldebrid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range newDebridProviders(&tt.cfg) {
				got = append(got, p.Name())
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewProviders(t *testing.T) {
	cfg := &config.Config{
		TorznabURL:   "http://jackett:9117/api",
		IndexerURL:   "http://indexer:7006",
		IndexerNames: []string{"bludv", "comando_torrents"},
	}
	if got := len(newProviders(cfg, nil)); got != 3 {
		t.Errorf("got %d providers, want 3", got)
	}
}

func TestNewMetadataRequiresTMDBKeyForLocalizer(t *testing.T) {
	multi, err := newMetadata(&config.Config{LocalizedLanguage: "ita"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if multi.Localizer != nil {
		t.Errorf("localizer configured without an api key")
	}
}
