package cli

import (
	"github.com/ankittk/hardcheck/internal/config"
	"github.com/ankittk/hardcheck/internal/daemon"
	"github.com/spf13/cobra"
)

func newDaemonCmd() *cobra.Command {
	var (
		port        int
		intervalSec float64
		dev         bool
		pprofAddr   string
		envFile     string
		enableOtel  bool
	)

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			return daemon.StartForeground(cmd.Context(), daemon.StartOptions{
				Home:        home,
				Port:        port,
				IntervalSec: intervalSec,
				Dev:         dev,
				PprofAddr:   pprofAddr,
				EnableOtel:  enableOtel,
				EnvFile:     envFile,
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "Port for the HTTP server")
	cmd.Flags().Float64Var(&intervalSec, "interval", 0, "Scheduler tick interval (seconds)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable dev mode")
	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "Enable pprof on address (e.g. 127.0.0.1:6060)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file")
	cmd.Flags().BoolVar(&enableOtel, "otel", false, "Enable OpenTelemetry metrics")

	return cmd
}
