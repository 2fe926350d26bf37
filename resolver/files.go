package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/magnet"
	"github.com/felipemarinho97/torrent-resolver/packfile"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

// FileLister fetches the file list of a torrent before any debrid job exists.
type FileLister interface {
	IsEnabled() bool
	Files(ctx context.Context, magnetURI string) ([]schema.File, error)
}

const hintConcurrency = 4

// WithFileLister enables episode file hints for the first limit pack candidates
// of an episodic query.
func (s *Service) WithFileLister(fl FileLister, limit int) *Service {
	s.files = fl
	s.hintLimit = limit
	return s
}

// hintFiles locates the requested episode inside pack candidates whose file
// index is unknown. Located files are recorded so the next lookup finds them in
// the store.
func (s *Service) hintFiles(ctx context.Context, q schema.MediaQuery, cands []schema.Candidate) {
	if s.files == nil || !s.files.IsEnabled() || s.hintLimit <= 0 {
		return
	}
	absolute, isAnime := q.AbsoluteNumber()
	isAnime = isAnime && q.Kind == schema.KindAnime
	if !isAnime && !q.IsEpisodic() {
		return
	}

	var targets []int
	for i, c := range cands {
		if c.FileIndex == nil && len(targets) < s.hintLimit {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return
	}

	found := make([]*schema.EpisodeFile, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hintConcurrency)
	for _, i := range targets {
		c := &cands[i]
		g.Go(func() error {
			files := c.Files
			if len(files) == 0 {
				uri, err := magnet.Build(c.InfoHash, c.Title, nil)
				if err != nil {
					return nil
				}
				if files, err = s.files.Files(gctx, uri); err != nil {
					logging.DebugCtx(gctx).Err(err).Str("info_hash", c.InfoHash).Msg("Failed to list torrent files")
					return nil
				}
				c.Files = files
			}

			var idx int
			var ok bool
			if isAnime {
				idx, ok = packfile.FindAbsolute(files, absolute, q.AllTitles()...)
			} else {
				idx, ok = packfile.FindEpisode(files, *q.Season, *q.Episode)
			}
			if !ok {
				return nil
			}
			c.FileIndex = &idx
			found[i] = episodeFileOf(q, schema.NormalizeHash(c.InfoHash), files, idx, absolute)
			return nil
		})
	}
	_ = g.Wait()

	var episodes []schema.EpisodeFile
	for _, ep := range found {
		if ep != nil {
			episodes = append(episodes, *ep)
		}
	}
	if len(episodes) == 0 || s.store == nil {
		return
	}
	if err := s.store.UpsertEpisodeFiles(ctx, episodes); err != nil {
		s.metrics.StoreError("upsert_episode_files")
		logging.WarnCtx(ctx).Err(err).Msg("Failed to save episode file hints")
	}
}

func episodeFileOf(q schema.MediaQuery, hash string, files []schema.File, idx, absolute int) *schema.EpisodeFile {
	ep := &schema.EpisodeFile{InfoHash: hash, FileIndex: idx}
	for _, f := range files {
		if f.Index == idx {
			ep.FileName, ep.Size = f.Path, f.Size
			break
		}
	}
	if q.Kind == schema.KindAnime {
		if q.KitsuID == "" {
			return nil
		}
		ep.KitsuID, ep.Episode = q.KitsuID, absolute
		return ep
	}
	if q.ImdbID == "" {
		return nil
	}
	ep.ImdbID, ep.Season, ep.Episode = q.ImdbID, *q.Season, *q.Episode
	return ep
}
