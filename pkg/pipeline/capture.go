package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"sync"
	"time"

	"github.com/magpress/magpress/pkg/cache"
	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/export"
	"github.com/magpress/magpress/pkg/layout"
	"github.com/magpress/magpress/pkg/observability"
	"github.com/magpress/magpress/pkg/raster"
)

// captured is one page's capture outcome. skipped marks pages without a
// stored layout when SkipMissing is set.
type captured struct {
	raster  export.PageRaster
	key     string
	skipped bool
	fromHit bool
}

// capture renders every requested page, in order, honoring the raster
// cache. With Workers > 1 pages render concurrently but the returned
// slices always preserve ascending page order. The second return carries
// each page's cache key, which the artifact cache folds into its key.
func (r *Runner) capture(ctx context.Context, opts *Options, info *CacheInfo) ([]export.PageRaster, []string, error) {
	results := make([]captured, len(opts.Pages))

	if opts.Workers <= 1 {
		rz, err := raster.New(opts.Fetcher, opts.Logger, opts.RasterOptions())
		if err != nil {
			return nil, nil, err
		}
		for i, page := range opts.Pages {
			if i > 0 && opts.SettleDelay > 0 {
				select {
				case <-ctx.Done():
					return nil, nil, errors.Wrap(errors.ErrCodeCancelled, ctx.Err(), "capture")
				case <-time.After(opts.SettleDelay):
				}
			}
			c, err := r.capturePage(ctx, opts, rz, page)
			if err != nil {
				return nil, nil, err
			}
			results[i] = c
		}
	} else {
		if err := r.captureParallel(ctx, opts, results); err != nil {
			return nil, nil, err
		}
	}

	out := make([]export.PageRaster, 0, len(results))
	keys := make([]string, 0, len(results))
	for _, c := range results {
		if c.skipped {
			continue
		}
		if c.fromHit {
			info.PageHits++
		} else {
			info.PageMisses++
		}
		out = append(out, c.raster)
		keys = append(keys, c.key)
	}
	if len(out) == 0 {
		return nil, nil, errors.New(errors.ErrCodePageMissing, "no pages could be captured")
	}
	return out, keys, nil
}

// captureParallel fans pages out over a bounded worker pool. Each worker
// owns its own rasterizer: font faces are not safe to share while drawing.
func (r *Runner) captureParallel(ctx context.Context, opts *Options, results []captured) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	indexes := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rz, err := raster.New(opts.Fetcher, opts.Logger, opts.RasterOptions())
			if err != nil {
				fail(err)
				return
			}
			for i := range indexes {
				c, err := r.capturePage(ctx, opts, rz, opts.Pages[i])
				if err != nil {
					fail(err)
					return
				}
				results[i] = c
			}
		}()
	}

	for i := range opts.Pages {
		select {
		case <-ctx.Done():
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCancelled, err, "capture")
	}
	return nil
}

// capturePage renders one page, consulting the raster cache first. A nil
// rz builds a fresh rasterizer.
func (r *Runner) capturePage(ctx context.Context, opts *Options, rz *raster.Rasterizer, page int) (captured, error) {
	l, err := r.Store.GetLayout(ctx, opts.Template, page)
	if err != nil {
		return captured{}, errors.Wrap(errors.ErrCodePageMissing, err, "load layout for page %d", page)
	}
	if l == nil {
		if opts.SkipMissing {
			opts.Logger.Warn("skipping page without layout", "template", opts.Template, "page", page)
			return captured{skipped: true}, nil
		}
		return captured{}, errors.New(errors.ErrCodePageMissing,
			"no layout for page %d of %s", page, opts.Template)
	}

	pc, err := r.Store.GetContent(ctx, opts.Template, page)
	if err != nil {
		return captured{}, errors.Wrap(errors.ErrCodePageMissing, err, "load content for page %d", page)
	}

	key, err := r.pageKey(l, pc, opts)
	if err != nil {
		return captured{}, err
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			img, err := png.Decode(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "page")
				return captured{raster: export.PageRaster{Number: page, Image: img}, key: key, fromHit: true}, nil
			}
			// Undecodable entry: drop it and re-render.
			_ = r.Cache.Delete(ctx, key)
		}
		observability.Cache().OnCacheMiss(ctx, "page")
	}

	if rz == nil {
		rz, err = raster.New(opts.Fetcher, opts.Logger, opts.RasterOptions())
		if err != nil {
			return captured{}, err
		}
	}

	img, err := rz.RenderPage(ctx, l, pc)
	if err != nil {
		return captured{}, errors.Wrap(errors.GetCode(err), err, "render page %d", page)
	}

	if !opts.Refresh {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLPage); err == nil {
				observability.Cache().OnCacheSet(ctx, "page", buf.Len())
			}
		}
	}

	return captured{raster: export.PageRaster{Number: page, Image: img}, key: key}, nil
}

// pageKey derives the raster cache key from the layout bytes, the content
// snapshot, and the render options that shape pixels.
func (r *Runner) pageKey(l *layout.Layout, pc *content.PageContent, opts *Options) (string, error) {
	layoutData, err := layout.Marshal(l)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidLayout, err, "hash layout")
	}
	contentData, err := json.Marshal(pc.Snapshot())
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash content")
	}
	return r.Keyer.PageKey(cache.Hash(layoutData), cache.Hash(contentData), opts.PageKeyOpts()), nil
}
