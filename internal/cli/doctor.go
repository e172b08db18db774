package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/ankittk/hardcheck/internal/config"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check config.yaml and required secrets",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())

			var problems, warnings []string

			if err := config.LoadEnv(home, envFile); err != nil {
				problems = append(problems, err.Error())
			}
			cfg, err := config.Load(home)
			if err != nil {
				problems = append(problems, "config: "+err.Error())
			} else {
				if _, err := os.Stat(config.Path(home)); err != nil {
					warnings = append(warnings, "no "+config.Path(home)+" (run `hardcheck init`)")
				}
				if len(cfg.Users) == 0 {
					warnings = append(warnings, "no users configured; check-ins go to nobody")
				}
				if cfg.Secrets.SlackBotToken == "" {
					problems = append(problems, "SLACK_BOT_TOKEN is not set")
				}
				if cfg.Secrets.SlackSigningSecret == "" {
					warnings = append(warnings, "SLACK_SIGNING_SECRET is not set; event requests are not verified")
				}
				if cfg.Secrets.OpenAIAPIKey == "" {
					warnings = append(warnings, "OPENAI_API_KEY is not set; replies use templates")
				}
				if cfg.Secrets.APIKey == "" {
					warnings = append(warnings, "HARDCHECK_API_KEY is not set; admin API is unauthenticated")
				}
			}

			for _, w := range warnings {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: "+w)
			}
			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok (timezone %s, classifier %s, store %s, %d users)\n",
				cfg.Timezone, cfg.Classifier, cfg.Store.Backend, len(cfg.Users))
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load env vars from file before checking")
	return cmd
}
