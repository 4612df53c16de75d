package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/export"
	"github.com/magpress/magpress/pkg/pipeline"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	templateDir string  // root directory holding template folders
	template    string  // template name
	identity    string  // exporting user's name, used in file names
	kind        string  // artifact kind: images, pdf, video
	pagesSpec   string  // page selection like "1,3,5-8"; empty means all
	outDir      string  // artifact output directory
	scale       float64 // resolution multiplier
	shift       float64 // baseline correction ratio
	quality     int     // JPEG quality for pdf/images
	fps         int     // video frame rate
	strategy    string  // video strategy: slideshow or flip
	ffmpegPath  string  // ffmpeg binary override
	workers     int     // capture parallelism
	skipMissing bool    // skip pages without layouts
	noCache     bool    // disable the raster cache
	refresh     bool    // bypass cached rasters
	interactive bool    // pick pages in a TUI
}

// exportCommand creates the export command running the full pipeline.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{
		templateDir: ".",
		identity:    "local",
		kind:        string(export.KindPDF),
		outDir:      "exports",
	}

	cmd := &cobra.Command{
		Use:   "export <template>",
		Short: "Export a template as a PDF, video, or image set",
		Long: `Export captures every selected page as a pixel-accurate raster and
assembles the rasters into one artifact: a paginated PDF, an MP4 video,
or a set of per-page JPEGs. Artifacts are written once and never
overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.template = args[0]
			return c.runExport(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.templateDir, "dir", "d", opts.templateDir, "template directory root")
	cmd.Flags().StringVarP(&opts.identity, "identity", "u", opts.identity, "user name for file names and storage keys")
	cmd.Flags().StringVarP(&opts.kind, "kind", "k", opts.kind, "artifact kind: images, pdf, video")
	cmd.Flags().StringVarP(&opts.pagesSpec, "pages", "p", "", "pages to export, e.g. \"1,3,5-8\" (default all)")
	cmd.Flags().StringVarP(&opts.outDir, "output", "o", opts.outDir, "artifact output directory")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "resolution multiplier (default 2.5, max 4)")
	cmd.Flags().Float64Var(&opts.shift, "shift-ratio", 0, "baseline correction as a fraction of font size")
	cmd.Flags().IntVar(&opts.quality, "quality", 0, "JPEG quality for pdf and images (default 95)")
	cmd.Flags().IntVar(&opts.fps, "fps", 0, "video frame rate (default 30)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "video strategy: slideshow (default), flip")
	cmd.Flags().StringVar(&opts.ffmpegPath, "ffmpeg", "", "path to the ffmpeg binary")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "capture parallelism (max 4)")
	cmd.Flags().BoolVar(&opts.skipMissing, "skip-missing", false, "skip pages without layouts instead of failing")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the raster cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render pages even when cached")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick pages interactively")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, opts *exportOpts) error {
	store, err := content.NewDirStore(opts.templateDir)
	if err != nil {
		return err
	}

	pages, err := c.resolvePages(store, opts)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return fmt.Errorf("template %s has no pages", opts.template)
	}

	runner, err := c.newRunner(opts.templateDir, opts.outDir, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	printInfo("Exporting %s pages %s as %s", opts.template, formatPages(pages), opts.kind)

	spinner := newSpinnerWithContext(ctx, "capturing pages...")
	spinner.Start()

	start := time.Now()
	result, err := runner.Execute(ctx, pipeline.Options{
		Identity:    opts.identity,
		Template:    opts.template,
		Kind:        export.Kind(opts.kind),
		Pages:       pages,
		Scale:       opts.scale,
		ShiftRatio:  opts.shift,
		Quality:     opts.quality,
		Workers:     opts.workers,
		SkipMissing: opts.skipMissing,
		Refresh:     opts.refresh,
		Logger:      c.Logger,
		OnState: func(s pipeline.State) {
			switch s {
			case pipeline.StateAssembling:
				spinner.SetMessage("assembling " + opts.kind + "...")
			case pipeline.StateUploading:
				spinner.SetMessage("publishing...")
			}
		},
		Video: export.VideoOptions{
			FPS:        opts.fps,
			Strategy:   export.Strategy(opts.strategy),
			FFmpegPath: opts.ffmpegPath,
		},
	})
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Export failed: %s", result.Error))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Exported %d pages in %s",
		result.Stats.PageCount, time.Since(start).Round(time.Millisecond)))

	printFile(result.Location)
	if len(result.PageLocations) > 1 {
		for _, loc := range result.PageLocations[1:] {
			printFile(loc)
		}
	}
	if result.CacheInfo.PageHits > 0 {
		printDetail("Raster cache: %d hits, %d misses",
			result.CacheInfo.PageHits, result.CacheInfo.PageMisses)
	}
	printDetail("Capture %s, assemble %s, publish %s",
		result.Stats.CaptureTime.Round(time.Millisecond),
		result.Stats.AssembleTime.Round(time.Millisecond),
		result.Stats.PublishTime.Round(time.Millisecond))
	return nil
}

// resolvePages turns the --pages flag (or an interactive selection) into
// the final page list.
func (c *CLI) resolvePages(store *content.DirStore, opts *exportOpts) ([]int, error) {
	available, err := store.Pages(opts.template)
	if err != nil {
		return nil, err
	}

	if opts.interactive {
		return pickPages(opts.template, available)
	}
	if opts.pagesSpec == "" {
		return available, nil
	}
	return parsePages(opts.pagesSpec)
}
