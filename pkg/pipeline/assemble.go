package pipeline

import (
	"context"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/magpress/magpress/pkg/cache"
	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/export"
	"github.com/magpress/magpress/pkg/observability"
)

// artifact is one assembled deliverable staged in the job's temp dir.
type artifact struct {
	// name is the client-facing file name.
	name string

	// path is the staged file inside the temp dir.
	path string

	// page is set for per-page artifacts of the images kind.
	page int
}

// assembleCached consults the artifact cache before assembling, keyed on
// the page raster keys and the assembly options. A hit stages the cached
// bytes directly; a miss assembles and stores the result. Only the
// single-file kinds are cached: the images kind publishes per-page files
// the page cache already covers.
func (r *Runner) assembleCached(ctx context.Context, opts *Options, tmpDir string, pages []export.PageRaster, pageKeys []string, info *CacheInfo) ([]artifact, error) {
	key := r.artifactKey(opts, pageKeys)
	if key == "" || opts.Refresh {
		return r.assemble(ctx, opts, tmpDir, pages)
	}

	name := export.FileName(opts.Identity, opts.Template, opts.Kind)
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, data, 0644); err == nil {
			observability.Cache().OnCacheHit(ctx, "artifact")
			info.ArtifactHit = true
			return []artifact{{name: name, path: path}}, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	artifacts, err := r.assemble(ctx, opts, tmpDir, pages)
	if err != nil || len(artifacts) != 1 {
		return artifacts, err
	}
	if data, err := os.ReadFile(artifacts[0].path); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, nil
}

// artifactKey derives the artifact cache key. An empty key disables
// artifact caching for this job.
func (r *Runner) artifactKey(opts *Options, pageKeys []string) string {
	if opts.Kind == export.KindImages || len(pageKeys) == 0 {
		return ""
	}
	material := strings.Join(pageKeys, "\n")
	if opts.Kind == export.KindVideo {
		// Strategy and per-page pacing change the encoded bytes but are
		// not part of ArtifactKeyOpts, so they join the hashed material.
		material += "\n" + string(opts.Video.Strategy) + "\n" + opts.Video.PerPage.String()
	}
	return r.Keyer.ArtifactKey(cache.Hash([]byte(material)), cache.ArtifactKeyOpts{
		Kind:    string(opts.Kind),
		Quality: opts.Quality,
		FPS:     opts.Video.FPS,
	})
}

// assemble turns captured rasters into staged artifact files. PDF and
// video produce exactly one artifact; the images kind produces one JPEG
// per page.
func (r *Runner) assemble(ctx context.Context, opts *Options, tmpDir string, pages []export.PageRaster) ([]artifact, error) {
	switch opts.Kind {
	case export.KindPDF:
		return r.assemblePDF(opts, tmpDir, pages)
	case export.KindVideo:
		return r.assembleVideo(ctx, opts, tmpDir, pages)
	case export.KindImages:
		return r.assembleImages(ctx, opts, tmpDir, pages)
	}
	return nil, errors.New(errors.ErrCodeInvalidKind, "invalid kind: %q", opts.Kind)
}

func (r *Runner) assemblePDF(opts *Options, tmpDir string, pages []export.PageRaster) ([]artifact, error) {
	name := export.FileName(opts.Identity, opts.Template, export.KindPDF)
	path := filepath.Join(tmpDir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssembly, err, "stage pdf")
	}

	expected := make([]int, len(pages))
	for i, p := range pages {
		expected[i] = p.Number
	}

	if err := export.WriteDocument(f, pages, export.DocumentOptions{
		Quality:  opts.Quality,
		Expected: expected,
	}); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssembly, err, "stage pdf")
	}
	return []artifact{{name: name, path: path}}, nil
}

func (r *Runner) assembleVideo(ctx context.Context, opts *Options, tmpDir string, pages []export.PageRaster) ([]artifact, error) {
	name := export.FileName(opts.Identity, opts.Template, export.KindVideo)
	path := filepath.Join(tmpDir, name)

	frameDir := filepath.Join(tmpDir, "frames")
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssembly, err, "stage frames")
	}

	if err := export.WriteVideo(ctx, path, frameDir, pages, opts.Video); err != nil {
		return nil, err
	}
	return []artifact{{name: name, path: path}}, nil
}

func (r *Runner) assembleImages(ctx context.Context, opts *Options, tmpDir string, pages []export.PageRaster) ([]artifact, error) {
	quality := opts.Quality
	if quality == 0 {
		quality = 95
	}
	if quality < 1 || quality > 100 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "jpeg quality must be in [1, 100], got %d", quality)
	}

	artifacts := make([]artifact, 0, len(pages))
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCancelled, err, "assemble images")
		}

		name := export.PageFileName(opts.Identity, opts.Template, p.Number)
		path := filepath.Join(tmpDir, name)

		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeAssembly, err, "stage page %d", p.Number)
		}
		if err := jpeg.Encode(f, p.Image, &jpeg.Options{Quality: quality}); err != nil {
			f.Close()
			return nil, errors.Wrap(errors.ErrCodeAssembly, err, "encode page %d", p.Number)
		}
		if err := f.Close(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAssembly, err, "stage page %d", p.Number)
		}
		artifacts = append(artifacts, artifact{name: name, path: path, page: p.Number})
	}
	return artifacts, nil
}
