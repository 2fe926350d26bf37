package magnet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felipemarinho97/torrent-resolver/cache"
	"github.com/felipemarinho97/torrent-resolver/logging"
)

const (
	trackersListCacheKey        = "dynamic_trackers_list"
	trackersListCacheExpiration = 24 * time.Hour
)

var DefaultTrackerListURLs = []string{
	"https://raw.githubusercontent.com/ngosang/trackerslist/master/trackers_best_ip.txt",
	"https://cdn.jsdelivr.net/gh/ngosang/trackerslist@master/trackers_best_ip.txt",
	"https://ngosang.github.io/trackerslist/trackers_best_ip.txt",
}

var StaticTrackers = []string{
	"udp://tracker.opentrackr.org:1337/announce",
	"udp://open.demonii.com:1337/announce",
	"udp://open.stealth.si:80/announce",
	"udp://tracker.torrent.eu.org:451/announce",
	"udp://exodus.desync.com:6969/announce",
	"udp://explodie.org:6969/announce",
	"udp://tracker.theoks.net:6969/announce",
	"udp://open.tracker.cl:1337/announce",
	"http://tracker.bt4g.com:2095/announce",
	"udp://tracker.dler.org:6969/announce",
}

// Trackers supplies the announce list appended to magnets built from stored
// records that only carry an info hash.
type Trackers struct {
	c      cache.Cache
	client *http.Client
	urls   []string
}

func NewTrackers(c cache.Cache, urls ...string) *Trackers {
	if c == nil {
		c = cache.Nop{}
	}
	if len(urls) == 0 {
		urls = DefaultTrackerListURLs
	}
	return &Trackers{c: c, client: &http.Client{Timeout: 10 * time.Second}, urls: urls}
}

// List returns the dynamic tracker list, falling back to StaticTrackers.
func (t *Trackers) List(ctx context.Context) []string {
	trackers, err := t.fetch(ctx)
	if err == nil && len(trackers) > 0 {
		return trackers
	}
	logging.Warn().Err(err).Msg("Falling back to static trackers")
	return StaticTrackers
}

func (t *Trackers) fetch(ctx context.Context) ([]string, error) {
	if cached, err := t.c.Get(ctx, trackersListCacheKey); err == nil {
		var trackers []string
		if err := json.Unmarshal(cached, &trackers); err == nil && len(trackers) > 0 {
			return trackers, nil
		}
	}

	var lastErr error
	for _, url := range t.urls {
		trackers, err := t.fetchOne(ctx, url)
		if err != nil {
			logging.Warn().Err(err).Str("url", url).Msg("Failed to fetch tracker list, trying next")
			lastErr = err
			continue
		}

		if data, err := json.Marshal(trackers); err == nil {
			if err := t.c.SetWithExpiration(ctx, trackersListCacheKey, data, trackersListCacheExpiration); err != nil {
				logging.Error().Err(err).Msg("Failed to cache dynamic trackers")
			}
		}
		return trackers, nil
	}
	return nil, lastErr
}

func (t *Trackers) fetchOne(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var trackers []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") || strings.HasPrefix(line, "udp://") {
			trackers = append(trackers, line)
		}
	}
	if len(trackers) == 0 {
		return nil, fmt.Errorf("no valid trackers found in response")
	}
	return trackers, nil
}
