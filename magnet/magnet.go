package magnet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

var ErrInvalidHash = errors.New("info hash must be 40 hex characters")

type Link struct {
	InfoHash    string
	DisplayName string
	Trackers    []string
}

// Parse decodes a magnet URI. The info hash is returned lower-case hex,
// whatever encoding the URI used.
func Parse(uri string) (Link, error) {
	m, err := metainfo.ParseMagnetUri(strings.TrimSpace(uri))
	if err != nil {
		return Link{}, fmt.Errorf("failed to parse magnet URI: %w", err)
	}
	return Link{
		InfoHash:    m.InfoHash.HexString(),
		DisplayName: m.DisplayName,
		Trackers:    m.Trackers,
	}, nil
}

// Build encodes a magnet URI for a 40-hex info hash.
func Build(infoHash, name string, trackers []string) (string, error) {
	var h metainfo.Hash
	if err := h.FromHexString(strings.ToLower(strings.TrimSpace(infoHash))); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, infoHash)
	}
	m := metainfo.Magnet{
		InfoHash:    h,
		DisplayName: name,
		Trackers:    trackers,
	}
	return m.String(), nil
}
