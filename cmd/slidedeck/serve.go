package main

import (
	"github.com/spf13/cobra"

	"github.com/gabrielmiguelok/slidedeck/internal/server"
	"github.com/gabrielmiguelok/slidedeck/pkg/logging"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the slideshow server",
		Long: `Serves the slideshow page and keeps one live socket per browser tab.
The server stops on SIGINT or SIGTERM after draining open connections.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logging.SetDefault(logger)

			logger.Debug("configuration loaded",
				logging.String("config", opts.cfgFile),
				logging.String("content_dir", cfg.Site.ContentDir),
			)
			return server.New(*cfg, logger, version).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.address")
	return cmd
}
