package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/journey"
	"github.com/aretw0/journey/internal/cli"
	"github.com/aretw0/journey/internal/presentation/tui"
	"github.com/aretw0/journey/internal/validator"
	httpAdapter "github.com/aretw0/journey/pkg/adapters/http"
	"github.com/aretw0/journey/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Loads and validates the journey, then serves one route per step below the base path until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		logger, err := cli.NewLogger(cfg)
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		app, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("error initializing journey: %w", err)
		}
		defer func() {
			if err := app.Close(); err != nil {
				logger.Warn("failed to close resources", "err", err)
			}
		}()

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout, fmt.Sprintf("%s %s on %s%s", app.Controller.Name, journey.Version, cfg.Addr(), cfg.Server.BasePath))
		}
		if p, ok := ports.AsPruner(app.Store); ok {
			go cli.RunPruner(ctx, p, cli.DefaultPruneInterval, logger)
		}
		for _, issue := range validator.Lint(app.Controller.Registry()).Issues {
			logger.Warn("journey lint", "step", issue.StepID, "issue", issue.Message)
		}

		handler := httpAdapter.NewHandler(app.Controller,
			httpAdapter.WithBasePath(cfg.Server.BasePath),
			httpAdapter.WithCookie(cfg.Session.CookieName, cfg.Session.TTL),
			httpAdapter.WithSecureCookie(cfg.Session.SecureCookie),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(app.Metrics, promhttp.HandlerOpts{})),
			httpAdapter.WithInfo(httpAdapter.Info{
				App:     "journey-http",
				Version: journey.Version,
				Journey: app.Controller.Name,
			}),
			httpAdapter.WithLogger(logger),
		)

		srv := httpAdapter.NewHTTPServer(cfg.Addr(), handler)
		srv.IdleTimeout = cfg.Server.IdleTimeout

		if err := httpAdapter.ListenAndServe(ctx, srv, logger); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		if sig := ctx.Signal(); sig != nil {
			logger.Info("stopped", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
}
