package cli

import (
	"fmt"
	"strings"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/spf13/cobra"
)

func newRosterCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "List configured users (with --remote, include deadline stats from the daemon)",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			out := cmd.OutOrStdout()

			if remote {
				c, err := apiClient(cmd.Context(), home)
				if err != nil {
					return err
				}
				users, err := c.Users(cmd.Context())
				if err != nil {
					return err
				}
				if len(users) == 0 {
					_, _ = fmt.Fprintln(out, "No users.")
					return nil
				}
				for _, u := range users {
					line := fmt.Sprintf("%s  %s  %s", u.ID, u.Name, u.Role)
					if u.Stats != nil {
						line += fmt.Sprintf("  active=%d overdue=%d completed=%d rate=%d%%",
							u.Stats.Active, u.Stats.Overdue, u.Stats.Completed, u.Stats.CompletionRate)
					}
					_, _ = fmt.Fprintln(out, line)
				}
				return nil
			}

			cfg, err := config.Load(home)
			if err != nil {
				return err
			}
			if len(cfg.Users) == 0 {
				_, _ = fmt.Fprintln(out, "No users configured.")
				return nil
			}
			for _, u := range cfg.Users {
				state := "active"
				if !u.Active {
					state = "inactive"
				}
				days := "weekdays"
				if len(u.CheckInDays) > 0 {
					days = strings.Join(u.CheckInDays, ",")
				}
				_, _ = fmt.Fprintf(out, "%s  %s  %s  %s  %s\n", u.ID, u.Name, u.Role, state, days)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Query the running daemon instead of config.yaml")
	return cmd
}
