package debrid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

// CheckCached asks p which hashes it has cached, in chunks of p.BatchLimit()
// with delay between chunks. A failed chunk leaves its hashes out of the result
// and the error is returned along with the chunks that succeeded.
func CheckCached(ctx context.Context, p Provider, hashes []string, delay time.Duration) (map[string]bool, error) {
	hashes = lo.Uniq(lo.FilterMap(hashes, func(h string, _ int) (string, bool) {
		h = schema.NormalizeHash(h)
		return h, h != ""
	}))
	out := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	size := p.BatchLimit()
	if size <= 0 {
		size = len(hashes)
	}

	var errs []error
	for i, chunk := range lo.Chunk(hashes, size) {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return out, errors.Join(append(errs, ctx.Err())...)
			case <-time.After(delay):
			}
		}

		res, err := p.CheckBulkCache(ctx, chunk)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s bulk check %d/%d: %w", p.Name(), i+1, (len(hashes)+size-1)/size, err))
			continue
		}
		for h, cached := range res {
			out[schema.NormalizeHash(h)] = cached
		}
	}
	return out, errors.Join(errs...)
}
