package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/ankittk/hardcheck/internal/daemon"
	"github.com/ankittk/hardcheck/internal/store"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the local deadline file (config.yaml is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			if st, _ := daemon.Status(cmd.Context(), home); st.Running {
				return fmt.Errorf("hardcheck is running (pid %d); stop it first", st.PID)
			}
			path := store.DefaultFilePath(home)

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "WARNING: this will permanently delete all deadlines.")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "File: %s\n", path)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), `Type "delete deadlines" to confirm:`)

			in := bufio.NewReader(cmd.InOrStdin())
			line, err := in.ReadString('\n')
			if err != nil && !strings.Contains(err.Error(), "EOF") {
				return err
			}
			line = strings.TrimSpace(line)
			if line != "delete deadlines" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}

			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
	return cmd
}
