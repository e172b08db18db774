package cli

import (
	"fmt"
	"net/url"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/ankittk/hardcheck/internal/daemon"
	"github.com/spf13/cobra"
)

func newStartCmd() *cobra.Command {
	var (
		port        int
		foreground  bool
		intervalSec float64
		dev         bool
		pprofAddr   string
		envFile     string
		enableOtel  bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the hardcheck daemon (Slack events endpoint, admin API, scheduler)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			opts := daemon.StartOptions{
				Home:        home,
				Port:        port,
				IntervalSec: intervalSec,
				Dev:         dev,
				PprofAddr:   pprofAddr,
				EnableOtel:  enableOtel,
				EnvFile:     envFile,
			}

			base := (&url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", port)}).String()

			if foreground {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting hardcheck in foreground on %s\n", base)
				return daemon.StartForeground(cmd.Context(), opts)
			}

			pid, err := daemon.StartBackground(cmd.Context(), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "hardcheck started (pid %d)\n", pid)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Slack events: %s/slack/events\n", base)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "Port for the HTTP server")
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run in foreground (do not daemonize)")
	cmd.Flags().Float64Var(&intervalSec, "interval", 0, "Scheduler tick interval in seconds (default: tickInterval from config.yaml)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode (CORS, debug logs)")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file (KEY=VALUE per line) before starting")
	cmd.Flags().BoolVar(&enableOtel, "otel", true, "Enable OpenTelemetry metrics (Prometheus exporter, HTTP/SSE/job instrumentation)")

	return cmd
}
