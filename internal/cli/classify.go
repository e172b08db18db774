package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ankittk/hardcheck/internal/classify"
	"github.com/ankittk/hardcheck/internal/config"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var (
		direct  bool
		variant string
		since   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Show whether the bot would answer a message",
		Long: "Runs the response classifier locally. --since sets how long ago the last check-in " +
			"broadcast went out (0 means none yet).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return errors.New("text is required")
			}
			if variant == "" {
				cfg, err := config.Load(config.MustHomeFrom(cmd.Context()))
				if err != nil {
					return err
				}
				variant = cfg.Classifier
			}
			preset, err := classify.Named(variant)
			if err != nil {
				return err
			}
			c := classify.New(preset)

			now := time.Now()
			in := classify.Input{Text: text, IsDirect: direct, Now: now}
			if since > 0 {
				in.LastBroadcast = now.Add(-since)
			}
			d := c.Classify(in)

			out := cmd.OutOrStdout()
			verdict := "ignore"
			if d.Respond {
				verdict = "respond"
			}
			_, _ = fmt.Fprintf(out, "%s (%s)\n", verdict, c.Name())
			_, _ = fmt.Fprintf(out, "  words=%d keyword=%t direct=%t window=%t long=%t\n",
				d.Words, d.Keyword, d.DirectSubstantial, d.WithinWindow, d.LongMessage)
			if len(d.Matched) > 0 {
				_, _ = fmt.Fprintf(out, "  matched: %s\n", strings.Join(d.Matched, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&direct, "direct", false, "Treat the message as a direct mention")
	cmd.Flags().StringVar(&variant, "variant", "", "Classifier preset: lightweight or comprehensive (default: config.yaml)")
	cmd.Flags().DurationVar(&since, "since", 0, "Time since the last check-in broadcast (e.g. 2h)")
	return cmd
}
