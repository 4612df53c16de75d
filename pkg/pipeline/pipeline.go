// Package pipeline provides the export pipeline for magpress.
//
// This package implements the complete capture → assemble → publish flow
// that can be used by CLI, API, and worker components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid
// code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Capture: Render every requested page into a pixel-accurate raster
//  2. Assemble: Combine the rasters into one artifact (PDF, MP4, or JPEGs)
//  3. Publish: Upload the artifact to write-once storage and log the export
//
// Each stage is observable through a job state machine:
//
//	pending → capturing → assembling → uploading → completed
//	                                             ↘ failed
//
// A job never retries on its own; a failed job reports its terminal error
// and leaves no partial artifact behind.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(store, artifacts, cache, nil, logger)
//	opts := pipeline.Options{
//	    Identity: "alice",
//	    Template: "summer-issue",
//	    Kind:     export.KindPDF,
//	    Pages:    []int{1, 2, 3},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Location)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/magpress/magpress/pkg/cache"
	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/export"
	"github.com/magpress/magpress/pkg/raster"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

const (
	// DefaultSettleDelay is the pause between sequential page captures.
	// It mirrors the settling wait the interactive editor needs before a
	// page is visually stable, and keeps capture pacing comparable.
	DefaultSettleDelay = 400 * time.Millisecond

	// DefaultWorkers is the default capture parallelism.
	DefaultWorkers = 1

	// MaxWorkers caps capture parallelism. Rendering is memory-heavy
	// (each worker holds a full-page context at capture scale).
	MaxWorkers = 4
)

// =============================================================================
// State Machine
// =============================================================================

// State is a job lifecycle state.
type State string

// Job states, in order of progression.
const (
	StatePending    State = "pending"
	StateCapturing  State = "capturing"
	StateAssembling State = "assembling"
	StateUploading  State = "uploading"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one export job.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Identity is the exporting user's name, used in file names and
	// storage keys.
	Identity string `json:"identity"`

	// Template is the magazine template name.
	Template string `json:"template"`

	// Kind selects the artifact: images, pdf, or video.
	Kind export.Kind `json:"kind"`

	// Pages lists the page numbers to capture, strictly ascending.
	Pages []int `json:"pages"`

	// Render options
	Scale        float64  `json:"scale,omitempty"`
	ShiftRatio   float64  `json:"shift_ratio,omitempty"`
	AllowedFonts []string `json:"allowed_fonts,omitempty"`

	// Quality is the JPEG quality for pdf and images kinds.
	Quality int `json:"quality,omitempty"`

	// Video holds encoder options for the video kind.
	Video export.VideoOptions `json:"video,omitempty"`

	// SkipMissing skips pages without a stored layout instead of failing
	// the job.
	SkipMissing bool `json:"skip_missing,omitempty"`

	// Refresh bypasses the raster cache.
	Refresh bool `json:"refresh,omitempty"`

	// SettleDelay is the pause between sequential captures. Zero means
	// DefaultSettleDelay; negative disables the delay.
	SettleDelay time.Duration `json:"settle_delay,omitempty"`

	// Workers is the capture parallelism, clamped to [1, MaxWorkers].
	Workers int `json:"workers,omitempty"`

	// FetchTimeout bounds each remote asset fetch.
	FetchTimeout time.Duration `json:"fetch_timeout,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger    `json:"-"`
	Fetcher raster.Fetcher `json:"-"`
	OnState func(State)    `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Identity == "" {
		return errors.New(errors.ErrCodeInvalidInput, "identity is required")
	}
	if err := errors.ValidateTemplateName(o.Template); err != nil {
		return err
	}
	if !o.Kind.Valid() {
		return errors.New(errors.ErrCodeInvalidKind,
			"invalid kind: %q (must be one of: images, pdf, video)", o.Kind)
	}
	if len(o.Pages) == 0 {
		return errors.New(errors.ErrCodeInvalidPageList, "at least one page is required")
	}
	for i, p := range o.Pages {
		if p < 1 {
			return errors.New(errors.ErrCodeInvalidPageList, "page numbers start at 1, got %d", p)
		}
		if i > 0 && p <= o.Pages[i-1] {
			return errors.New(errors.ErrCodeInvalidPageList,
				"pages must be strictly ascending: %d after %d", p, o.Pages[i-1])
		}
	}

	if o.SettleDelay == 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.Workers < 1 {
		o.Workers = DefaultWorkers
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// RasterOptions returns the render options for this job.
func (o *Options) RasterOptions() raster.Options {
	return raster.Options{
		Scale:        o.Scale,
		ShiftRatio:   o.ShiftRatio,
		FetchTimeout: o.FetchTimeout,
		AllowedFonts: o.AllowedFonts,
	}
}

// PageKeyOpts returns cache key options for page raster caching.
func (o *Options) PageKeyOpts() cache.PageKeyOpts {
	scale := o.Scale
	if scale == 0 {
		scale = raster.DefaultScale
	}
	shift := o.ShiftRatio
	if shift == 0 {
		shift = raster.DefaultShiftRatio
	}
	return cache.PageKeyOpts{Scale: scale, ShiftRatio: shift}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// JobID uniquely identifies this export job.
	JobID string `json:"job_id"`

	// State is the job's final state.
	State State `json:"state"`

	// Key is the storage key of the published artifact.
	Key string `json:"key,omitempty"`

	// Location is where the published artifact can be retrieved.
	Location string `json:"location,omitempty"`

	// PageLocations lists per-page locations for the images kind.
	PageLocations []string `json:"page_locations,omitempty"`

	// Pages lists the page numbers actually captured.
	Pages []int `json:"pages,omitempty"`

	// Error is the terminal error message for failed jobs.
	Error string `json:"error,omitempty"`

	// Stats contains timing and size information.
	Stats Stats `json:"stats"`

	// CacheInfo tracks raster cache effectiveness.
	CacheInfo CacheInfo `json:"cache_info"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PageCount    int           `json:"page_count"`
	ArtifactSize int64         `json:"artifact_size,omitempty"`
	CaptureTime  time.Duration `json:"capture_time"`
	AssembleTime time.Duration `json:"assemble_time"`
	PublishTime  time.Duration `json:"publish_time"`
}

// CacheInfo tracks cache effectiveness during the run.
type CacheInfo struct {
	PageHits   int `json:"page_hits"`
	PageMisses int `json:"page_misses"`

	// ArtifactHit reports that the assembled artifact came straight from
	// the cache, skipping assembly entirely.
	ArtifactHit bool `json:"artifact_hit,omitempty"`
}
