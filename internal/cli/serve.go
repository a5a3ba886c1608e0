package cli

import (
	"github.com/spf13/cobra"

	"github.com/medilabo/webapp/internal"
)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			ctx := cmd.Context()

			sessions, checks, closeSessions, err := openSessions(ctx, cfg)
			if err != nil {
				return err
			}
			srv, err := build(cfg, log, sessions, checks)
			if err != nil {
				return err
			}

			opts := []internal.RunOption{
				internal.WithContext(ctx),
				internal.Logger(log),
				internal.ShutdownTimeout(cfg.ShutdownTimeout),
				internal.StartupHook(srv.scheduler.Start),
				internal.ShutdownHook(ignoreNotStarted(srv.scheduler.Stop)),
			}
			for _, fn := range append(srv.shutdown, closeSessions...) {
				opts = append(opts, internal.ShutdownHook(fn))
			}

			log.InfoContext(ctx, "starting webapp",
				"addr", cfg.Addr,
				"session_store", cfg.Session.Store,
			)
			return srv.app.Run(cfg.Addr, opts...)
		},
	}
}
