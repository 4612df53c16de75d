package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magpress/magpress/pkg/content"
	"github.com/magpress/magpress/pkg/layout"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	templateDir string // root directory holding template folders
	template    string // template name
	page        int    // page number to create
	photos      int    // editable photo slots
	overlays    int    // decorative PNG overlays
	texts       int    // text blocks (title + body lines)
	photosURL   string // base URL for photo slot defaults
	pngURL      string // base URL for overlay images
	font        string // font family for text blocks
	stdout      bool   // print the layout instead of writing a file
}

// generateCommand creates the generate command for scaffolding page layouts.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{
		templateDir: ".",
		page:        1,
		texts:       2,
	}

	cmd := &cobra.Command{
		Use:   "generate <template>",
		Short: "Generate a page layout for a template",
		Long: `Generate scaffolds one page layout: a title and body text block,
editable photo slots with light blue borders, and non-editable decorative
overlays stacked diagonally above everything else.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.template = args[0]
			return c.runGenerate(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.templateDir, "dir", "d", opts.templateDir, "template directory root")
	cmd.Flags().IntVarP(&opts.page, "page", "p", opts.page, "page number")
	cmd.Flags().IntVar(&opts.photos, "photos", 0, "number of editable photo slots")
	cmd.Flags().IntVar(&opts.overlays, "overlays", 0, "number of decorative overlays")
	cmd.Flags().IntVar(&opts.texts, "texts", opts.texts, "number of text blocks")
	cmd.Flags().StringVar(&opts.photosURL, "photos-url", "", "base URL for photo defaults")
	cmd.Flags().StringVar(&opts.pngURL, "png-url", "", "base URL for overlay images")
	cmd.Flags().StringVar(&opts.font, "font", "", "font family for text blocks")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "print the layout JSON instead of writing it")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, opts *generateOpts) error {
	l, err := layout.Generate(layout.GenerateInput{
		PhotoSlots:    opts.photos,
		PNGElements:   opts.overlays,
		TextCount:     opts.texts,
		PhotosBaseURL: opts.photosURL,
		PNGBaseURL:    opts.pngURL,
		FontFamily:    opts.font,
	})
	if err != nil {
		return err
	}

	if opts.stdout {
		data, err := layout.Marshal(l)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if err := os.MkdirAll(opts.templateDir, 0755); err != nil {
		return err
	}
	store, err := content.NewDirStore(opts.templateDir)
	if err != nil {
		return err
	}
	if err := store.PutLayout(ctx, opts.template, opts.page, l); err != nil {
		return err
	}

	printSuccess("Generated page %d of %s", opts.page, opts.template)
	printDetail("Blocks: %d text, %d image", len(l.TextBlocks), len(l.ImageBlocks))
	printDetail("Page ID: %s", l.PageID)
	return nil
}
