package main

import (
	"errors"
	"fmt"
	"io/fs"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/slidedeck/internal/site"
	"github.com/gabrielmiguelok/slidedeck/pkg/slides"
)

func newSectionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the configured sections in navigation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			content := site.NewContent(cfg.Site.ContentDir)
			def := slides.Normalize(cfg.Site.Default)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SECTION\tID\tFILE\tSTATUS")
			for _, sec := range cfg.Site.Sections {
				name := slides.Normalize(sec.Name)
				label := name.String()
				if name == def {
					label += " *"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", label, sec.ID, sec.File, fileStatus(content, sec.File))
			}
			return tw.Flush()
		},
	}
}

// fileStatus reports whether a section file renders.
func fileStatus(content *site.Content, file string) string {
	_, err := content.Load(file)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, site.ErrNoContentFile):
		return "none"
	case errors.Is(err, fs.ErrNotExist):
		return "missing"
	default:
		return "error: " + err.Error()
	}
}
