package cli

import (
	"fmt"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/spf13/cobra"
)

func newOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List users with overdue deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			users, err := c.Overdue(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				_, _ = fmt.Fprintln(out, "Nothing overdue.")
				return nil
			}
			for _, u := range users {
				_, _ = fmt.Fprintf(out, "%s (%s, %s)\n", u.Name, u.UserID, u.Role)
				for _, d := range u.Deadlines {
					printDeadline(out, d, fmt.Sprintf("  reminders=%d", d.ReminderCount))
				}
			}
			return nil
		},
	}
}

func newCheckinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin",
		Short: "Send the daily check-in broadcast now",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			res, err := c.CheckIn(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Check-in sent=%d reminders=%d skipped=%d failed=%d\n",
				res.Sent, res.Reminders, res.Skipped, res.Failed)
			return nil
		},
	}
}

func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Run the overdue reminder sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			res, err := c.Reminders(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reminders users=%d sent=%d marked=%d failed=%d\n",
				res.Users, res.Sent, res.Marked, res.Failed)
			return nil
		},
	}
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove completed deadlines past the retention window now",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			res, err := c.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed deadlines\n", res.Removed)
			return nil
		},
	}
}
