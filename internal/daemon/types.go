package daemon

// StartOptions configures the daemon (home, port, scheduler tick, dev mode, pprof, metrics).
type StartOptions struct {
	Home        string
	Port        int
	IntervalSec float64 // scheduler tick; 0 uses tickInterval from config.yaml
	Dev         bool
	PprofAddr   string
	EnableOtel  bool   // enable OpenTelemetry metrics (Prometheus exporter + HTTP/SSE/job instrumentation)
	EnvFile     string // extra KEY=VALUE file loaded before config.yaml is read
}

// StatusInfo is the result of Status (running or not, PID, listen addr).
type StatusInfo struct {
	Running bool
	PID     int
	Addr    string
}
