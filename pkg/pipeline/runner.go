package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/magpress/magpress/pkg/cache"
	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/observability"
	"github.com/magpress/magpress/pkg/storage"
)

// Runner encapsulates export job execution.
//
// The Runner is stateless except for its collaborators - it doesn't store
// job results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Store     content.Store
	Artifacts storage.Storage
	ExportLog storage.ExportLog
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
}

// NewRunner creates a runner. If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (raster caching disabled). ExportLog
// starts as a NullExportLog; assign the field to record completed
// exports.
func NewRunner(store content.Store, artifacts storage.Storage, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Store:     store,
		Artifacts: artifacts,
		ExportLog: storage.NullExportLog{},
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
	}
}

// Execute runs the complete capture → assemble → publish pipeline for one
// export job. The returned Result is populated even on failure, with
// State set to StateFailed and Error carrying the terminal message.
//
// All intermediate files live in a per-job temp dir that is removed on
// every exit path.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{
		JobID: uuid.NewString(),
		State: StatePending,
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		result.State = StateFailed
		result.Error = errors.UserMessage(err)
		return result, err
	}
	logger := opts.Logger.With("job", result.JobID, "template", opts.Template, "kind", opts.Kind)

	setState := func(s State) {
		result.State = s
		logger.Debug("job state", "state", s)
		if opts.OnState != nil {
			opts.OnState(s)
		}
	}

	tmpDir, err := os.MkdirTemp("", "magpress-*")
	if err != nil {
		err = errors.Wrap(errors.ErrCodeInternal, err, "create job dir")
		setState(StateFailed)
		result.Error = errors.UserMessage(err)
		return result, err
	}
	defer os.RemoveAll(tmpDir)

	fail := func(err error) (*Result, error) {
		setState(StateFailed)
		result.Error = errors.UserMessage(err)
		logger.Error("export failed", "err", err)
		return result, err
	}

	jobStart := time.Now()

	// Stage 1: Capture
	setState(StateCapturing)
	captureStart := time.Now()
	observability.Export().OnCaptureStart(ctx, result.JobID, len(opts.Pages))
	pages, pageKeys, err := r.capture(ctx, &opts, &result.CacheInfo)
	result.Stats.CaptureTime = time.Since(captureStart)
	observability.Export().OnCaptureComplete(ctx, result.JobID, len(pages), result.Stats.CaptureTime, err)
	if err != nil {
		return fail(err)
	}
	result.Stats.PageCount = len(pages)
	for _, p := range pages {
		result.Pages = append(result.Pages, p.Number)
	}
	logger.Info("captured pages",
		"pages", len(pages),
		"cache_hits", result.CacheInfo.PageHits,
		"duration", result.Stats.CaptureTime)

	// Stage 2: Assemble
	setState(StateAssembling)
	assembleStart := time.Now()
	observability.Export().OnAssembleStart(ctx, result.JobID, string(opts.Kind))
	artifacts, err := r.assembleCached(ctx, &opts, tmpDir, pages, pageKeys, &result.CacheInfo)
	result.Stats.AssembleTime = time.Since(assembleStart)
	observability.Export().OnAssembleComplete(ctx, result.JobID, string(opts.Kind), result.Stats.AssembleTime, err)
	if err != nil {
		return fail(err)
	}
	logger.Info("assembled artifact",
		"files", len(artifacts),
		"duration", result.Stats.AssembleTime)

	// Stage 3: Publish
	setState(StateUploading)
	publishStart := time.Now()
	now := time.Now()
	for _, a := range artifacts {
		key := storage.ObjectKey(opts.Identity, a.name, now)
		loc, size, err := r.publish(ctx, result.JobID, key, a.path)
		if err != nil {
			result.Stats.PublishTime = time.Since(publishStart)
			return fail(err)
		}
		result.Stats.ArtifactSize += size
		if a.page > 0 {
			result.PageLocations = append(result.PageLocations, loc)
		}
		// The primary location is the single artifact, or the first page
		// of an image set.
		if result.Location == "" {
			result.Key = key
			result.Location = loc
		}
	}
	result.Stats.PublishTime = time.Since(publishStart)

	// Export logging is advisory: a failed record never fails the job.
	keyOpts := opts.PageKeyOpts()
	if err := r.ExportLog.Record(ctx, storage.ExportRecord{
		Identity:  opts.Identity,
		Template:  opts.Template,
		Kind:      string(opts.Kind),
		Location:  result.Location,
		Pages:     len(pages),
		Duration:  time.Since(jobStart),
		CreatedAt: now,
		Meta: storage.ExportMeta{
			Scale:      keyOpts.Scale,
			ShiftRatio: keyOpts.ShiftRatio,
		},
	}); err != nil {
		logger.Warn("export log record failed", "err", err)
	}

	setState(StateCompleted)
	logger.Info("export completed",
		"location", result.Location,
		"size", result.Stats.ArtifactSize,
		"duration", time.Since(jobStart))
	return result, nil
}

// publish uploads one staged file to write-once storage.
func (r *Runner) publish(ctx context.Context, jobID, key, path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrap(errors.ErrCodePublish, err, "open staged artifact")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", 0, errors.Wrap(errors.ErrCodePublish, err, "stat staged artifact")
	}

	start := time.Now()
	observability.Export().OnPublishStart(ctx, jobID, key)
	loc, err := r.Artifacts.Put(ctx, key, f)
	observability.Export().OnPublishComplete(ctx, jobID, key, fi.Size(), time.Since(start), err)
	if err != nil {
		return "", 0, err
	}
	return loc, fi.Size(), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
