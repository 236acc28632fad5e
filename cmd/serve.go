package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BioHazard786/eggcombat/internal/config"
	"github.com/BioHazard786/eggcombat/internal/server"
	"github.com/BioHazard786/eggcombat/internal/signaling"
	"github.com/BioHazard786/eggcombat/internal/ui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server",
	Long: `Run the websocket signaling server peers use to claim identities and
exchange WebRTC offers, answers and ICE candidates.

Routes:
  /ws       websocket signaling
  /health   liveness probe
  /metrics  Prometheus metrics

Examples:
  eggcombat serve
  eggcombat serve --listen :9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := configOptions()
		opts.ListenAddr = flagListen
		cfg, err := LoadConfig(opts)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, slog.Default())
	},
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := signaling.NewHub(signaling.NewMetrics("eggcombat", reg), log)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.NewMux(hub, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		ui.PrintInfof("Signaling server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "Listen address (default :8080)")
}
