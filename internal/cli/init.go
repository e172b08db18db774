package cli

import (
	"fmt"
	"os"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example config.yaml to the hardcheck home",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			path := config.Path(home)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.EnsureHome(home); err != nil {
				return err
			}
			if err := config.Save(home, config.Example()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Edit the users list, then set SLACK_BOT_TOKEN and SLACK_SIGNING_SECRET.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.yaml")
	return cmd
}
