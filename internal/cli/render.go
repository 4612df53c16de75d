package cli

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/raster"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	templateDir string  // root directory holding template folders
	template    string  // template name
	page        int     // page number to render
	output      string  // output file path
	scale       float64 // resolution multiplier
	shift       float64 // baseline correction ratio
	quality     int     // JPEG quality when writing .jpg
}

// renderCommand creates the render command for rasterizing a single page.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		templateDir: ".",
		page:        1,
	}

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render one template page to an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.template = args[0]
			return c.runRender(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.templateDir, "dir", "d", opts.templateDir, "template directory root")
	cmd.Flags().IntVarP(&opts.page, "page", "p", opts.page, "page number")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.png or .jpg, default <template>_page_<n>.png)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "resolution multiplier (default 2.5, max 4)")
	cmd.Flags().Float64Var(&opts.shift, "shift-ratio", 0, "baseline correction as a fraction of font size")
	cmd.Flags().IntVar(&opts.quality, "quality", 95, "JPEG quality for .jpg output")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts *renderOpts) error {
	store, err := content.NewDirStore(opts.templateDir)
	if err != nil {
		return err
	}

	l, err := store.GetLayout(ctx, opts.template, opts.page)
	if err != nil {
		return err
	}
	if l == nil {
		return errors.New(errors.ErrCodePageMissing,
			"no layout for page %d of %s", opts.page, opts.template)
	}
	pc, err := store.GetContent(ctx, opts.template, opts.page)
	if err != nil {
		return err
	}

	r, err := raster.New(nil, c.Logger, raster.Options{
		Scale:      opts.scale,
		ShiftRatio: opts.shift,
	})
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	img, err := r.RenderPage(ctx, l, pc)
	if err != nil {
		return err
	}
	w, h := r.Dimensions()
	prog.done(fmt.Sprintf("Rendered page %d at %dx%d", opts.page, w, h))

	out := opts.output
	if out == "" {
		out = fmt.Sprintf("%s_page_%d.png", opts.template, opts.page)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(out)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: opts.quality})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return err
	}

	printSuccess("Rendered %s page %d", opts.template, opts.page)
	printFile(out)
	return nil
}
