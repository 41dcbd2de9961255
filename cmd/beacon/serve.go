// ABOUTME: Serve command for the HTTP viewer
// ABOUTME: Exposes short-link lookups, session JSON and link admin routes

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/harper/beacon/internal/viewer"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveRate  float64
	serveBurst float64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve share links and session views over HTTP",
	Long: `Start the viewer HTTP server.

Routes:
  GET    /s/{code}          follow a short link (counts a click, returns link and session)
  GET    /map/{id}          session view as JSON (?recent=N)
  GET    /api/sessions      session directory
  GET    /api/sessions/{id} session view as JSON
  GET    /api/links         all short links (admin)
  DELETE /api/links/{code}  delete a short link (admin)
  GET    /healthz           liveness

Admin routes require the X-Admin-Token header when admin_token is set.
Set base_url in config so printed share links point at this server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.GetListenAddr()
		}

		srv := viewer.NewServer(sessions, links,
			viewer.WithAdminToken(cfg.AdminToken),
			viewer.WithRateLimiter(viewer.NewRateLimiter(serveRate, serveBurst)),
			viewer.WithLogger(logger.WithPrefix("http")),
		)

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		color.Green("✓ Viewer on http://%s", addr)
		if cfg.AdminToken == "" {
			color.Yellow("⚠ admin_token is not set; link admin routes are open")
		}
		return viewer.ListenAndServe(ctx, addr, srv.Routes(), logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().Float64Var(&serveRate, "rate", 1, "short-link requests per second per client")
	serveCmd.Flags().Float64Var(&serveBurst, "burst", 10, "short-link burst per client")

	rootCmd.AddCommand(serveCmd)
}
