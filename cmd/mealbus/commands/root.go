package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/next-trace/scg-meal-bus/app"
)

type globals struct {
	envFile string
	cfg     app.Config
	logger  *slog.Logger
}

func Execute() error { return NewRoot().Execute() }

// NewRoot builds the command tree. Configuration is loaded from the environment
// (and the optional --env-file) before any subcommand runs.
func NewRoot() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "mealbus",
		Short:         "Meal tracker bus and cache tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if g.envFile != "" {
				files = append(files, g.envFile)
			}

			cfg, err := app.LoadConfig(files...)
			if err != nil {
				return err
			}

			g.cfg = cfg
			g.logger = cfg.NewLogger(cmd.ErrOrStderr())

			return nil
		},
	}

	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "dotenv file to load (default .env when present)")

	root.AddCommand(demoCmd(g), cacheCmd(g))

	return root
}
