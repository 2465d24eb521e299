package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/slidedeck/internal/config"
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
)

// version is set via ldflags at build time.
var version = "dev"

type options struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "slidedeck",
		Short:         "Serve a one-section-at-a-time slideshow site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "slidedeck.yml", "config file path")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newSectionsCmd(opts),
		newVersionCmd(),
	)
	return root
}

// load reads and validates the configuration.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", o.cfgFile, err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := []logging.LoggerOption{logging.WithLevel(level), logging.WithOutput(out)}
	if cfg.JSON {
		opts = append(opts, logging.WithJSON())
	}
	return logging.NewSlogLogger(opts...), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of slidedeck",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slidedeck %s\n", version)
		},
	}
}
