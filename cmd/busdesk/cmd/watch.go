package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/xetiic/busdesk/internal/metrics"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream session changes (and serve metrics)",
	Long: `Stream session state changes to stdout until interrupted.

When metrics.addr is configured, a Prometheus endpoint is served at
/metrics for the lifetime of the watch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		m := metrics.New(reg)

		a, err := newApp(ctx, metrics.NewSink(m))
		if err != nil {
			return err
		}
		defer a.Close()

		if addr := a.cfg.Metrics.Addr; addr != "" {
			srv := &http.Server{
				Addr:              addr,
				Handler:           metricsHandler(reg),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				a.logger.Info("metrics endpoint listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("metrics endpoint failed", "error", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		printSession(a.manager.Snapshot())
		for snap := range a.manager.Watch(ctx) {
			fmt.Println("---")
			printSession(snap)
		}
		return nil
	},
}

// metricsHandler serves the registry at /metrics only.
func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
