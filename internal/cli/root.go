package cli

import (
	"os"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/ankittk/hardcheck/internal/logger"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	var homeOverride string

	cmd := &cobra.Command{
		Use:          "hardcheck",
		Short:        "hardcheck - daily accountability check-ins and deadlines over Slack",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			home, err := config.ResolveHome(homeOverride)
			if err != nil {
				return err
			}
			logger.Init(config.DevMode(), os.Getenv("SENTRY_DSN"))
			cmd.SetContext(config.WithHome(cmd.Context(), home))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&homeOverride, "home", "", "Override hardcheck home directory (default: ~/.hardcheck, env: HARDCHECK_HOME)")

	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())

	cmd.AddCommand(newRosterCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newDeadlineCmd())
	cmd.AddCommand(newOverdueCmd())
	cmd.AddCommand(newCheckinCmd())
	cmd.AddCommand(newRemindCmd())
	cmd.AddCommand(newCleanupCmd())
	cmd.AddCommand(newApikeyCmd())
	cmd.AddCommand(newResetCmd())

	// Hidden internal subcommand used by `hardcheck start` for background mode.
	cmd.AddCommand(newDaemonCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
