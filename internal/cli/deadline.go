package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/ankittk/hardcheck/pkg/models"
	"github.com/spf13/cobra"
)

func newDeadlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadline",
		Short: "Manage user deadlines on the running daemon",
	}
	cmd.AddCommand(newDeadlineListCmd())
	cmd.AddCommand(newDeadlineAddCmd())
	cmd.AddCommand(newDeadlineCompleteCmd())
	cmd.AddCommand(newDeadlineRemindCmd())
	cmd.AddCommand(newDeadlineStatsCmd())
	return cmd
}

func newDeadlineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list USER_ID",
		Short: "List active, overdue and due-today deadlines for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			list, err := c.Deadlines(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list.Active) == 0 {
				_, _ = fmt.Fprintln(out, "No active deadlines.")
				return nil
			}
			overdue := make(map[string]bool, len(list.Overdue))
			for _, d := range list.Overdue {
				overdue[d.ID] = true
			}
			today := make(map[string]bool, len(list.DueToday))
			for _, d := range list.DueToday {
				today[d.ID] = true
			}
			for _, d := range list.Active {
				tag := ""
				switch {
				case overdue[d.ID]:
					tag = "  OVERDUE"
				case today[d.ID]:
					tag = "  due today"
				}
				printDeadline(out, d, tag)
			}
			return nil
		},
	}
}

func newDeadlineAddCmd() *cobra.Command {
	var (
		task, due, typ, msgContext string
	)
	cmd := &cobra.Command{
		Use:   "add USER_ID",
		Short: "Add a deadline (without --task, one is generated from the user's role)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if task != "" && due == "" {
				return errors.New("--due is required with --task")
			}
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			d, err := c.AddDeadline(cmd.Context(), args[0], models.AddDeadlineRequest{
				Task:    task,
				DueDate: due,
				Type:    typ,
				Context: msgContext,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Added:")
			printDeadline(cmd.OutOrStdout(), *d, "")
			return nil
		},
	}
	cmd.Flags().StringVar(&task, "task", "", "Task description")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&typ, "type", "", "Deadline type (e.g. strategic, efficiency)")
	cmd.Flags().StringVar(&msgContext, "context", "", "Message text used to pick a generated deadline")
	return cmd
}

func newDeadlineCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete USER_ID DEADLINE_ID",
		Short: "Mark a deadline completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			if err := c.CompleteDeadline(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", args[1])
			return nil
		},
	}
}

func newDeadlineRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind USER_ID DEADLINE_ID",
		Short: "Record a reminder for a deadline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			if err := c.RemindDeadline(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reminded %s\n", args[1])
			return nil
		},
	}
}

func newDeadlineStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats USER_ID",
		Short: "Show deadline counts and completion rate for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd.Context(), config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			st, err := c.Stats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "active=%d overdue=%d completed=%d rate=%d%%\n",
				st.Active, st.Overdue, st.Completed, st.CompletionRate)
			return nil
		},
	}
}

func printDeadline(w io.Writer, d models.Deadline, tag string) {
	_, _ = fmt.Fprintf(w, "%s  %s  [%s]  %s%s\n", d.ID, d.DueDate, d.Type, d.Task, tag)
}
