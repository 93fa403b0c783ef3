package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lead sourcing HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := server.New(env.Pipeline, env.Cache,
			server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			server.WithPlaceholder(cfg.Export.Placeholder),
			server.WithBreakers(env.Breakers),
		)
		return server.Serve(ctx, srv.Handler(), resolvePort(servePort, cfg.Server.Port))
	},
}

// resolvePort returns flagPort when set, otherwise the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
