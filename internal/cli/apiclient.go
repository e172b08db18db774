package cli

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"

	"github.com/ankittk/hardcheck/internal/daemon"
	"github.com/ankittk/hardcheck/pkg/client"
)

// apiClient targets HARDCHECK_URL when set, otherwise the local daemon recorded under home.
func apiClient(ctx context.Context, home string) (*client.Client, error) {
	apiKey := os.Getenv("HARDCHECK_API_KEY")
	if u := strings.TrimSpace(os.Getenv("HARDCHECK_URL")); u != "" {
		return client.New(u, apiKey), nil
	}
	st, err := daemon.Status(ctx, home)
	if err != nil {
		return nil, err
	}
	if !st.Running {
		return nil, errors.New("hardcheck is not running (start it with `hardcheck start` or set HARDCHECK_URL)")
	}
	return client.New("http://"+dialAddr(st.Addr), apiKey), nil
}

// dialAddr turns the daemon's listen address into one a local client can dial.
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
