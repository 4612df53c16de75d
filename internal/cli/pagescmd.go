package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magpress/magpress/pkg/content"
)

// pagesOpts holds the command-line flags for the pages command.
type pagesOpts struct {
	templateDir string // root directory holding template folders
	template    string // template name
	interactive bool   // pick a subset in a TUI
}

// pagesCommand creates the pages command for listing and selecting pages.
func (c *CLI) pagesCommand() *cobra.Command {
	opts := pagesOpts{
		templateDir: ".",
	}

	cmd := &cobra.Command{
		Use:   "pages <template>",
		Short: "List a template's pages",
		Long: `Pages lists the page numbers a template defines. With --interactive it
opens a selection list and prints the chosen subset in a form that
"export --pages" accepts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.template = args[0]
			return c.runPages(&opts)
		},
	}

	cmd.Flags().StringVarP(&opts.templateDir, "dir", "d", opts.templateDir, "template directory root")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick a subset interactively")

	return cmd
}

func (c *CLI) runPages(opts *pagesOpts) error {
	store, err := content.NewDirStore(opts.templateDir)
	if err != nil {
		return err
	}

	available, err := store.Pages(opts.template)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return fmt.Errorf("template %s has no pages", opts.template)
	}

	if opts.interactive {
		selected, err := pickPages(opts.template, available)
		if err != nil {
			return err
		}
		fmt.Println(formatPages(selected))
		return nil
	}

	printInfo("Template %s has %d pages", opts.template, len(available))
	fmt.Println(formatPages(available))
	return nil
}
