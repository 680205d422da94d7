package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eventbudget/internal/cli"
	"eventbudget/internal/config"
	"eventbudget/internal/core"
	"eventbudget/internal/log"
)

var (
	ownerID    string
	eventID    string
	actor      string
	jsonOutput bool
	notify     bool

	logger *log.Logger
	rt     *cli.Runtime
)

var rootCmd = &cobra.Command{
	Use:           "budgetctl <command>",
	Short:         "Administer event budgets directly against the data backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.LoadEnvFile()
		cfg, err := cli.LoadAndValidateConfig((*config.Config).Validate)
		if err != nil {
			return err
		}
		logger = cli.SetupLogger(cfg.LogLevel)
		rt, err = cli.Build(cmd.Context(), logger, cfg, cli.BuildOptions{Notifier: notify})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt != nil {
			if err := rt.Close(); err != nil {
				logger.Warn("Failed to close runtime", log.FieldError, err)
			}
		}
	},
}

// commandContext attaches the --actor used for updatedBy stamps.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if actor != "" {
		ctx = core.WithActor(ctx, actor)
	}
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "user recorded as updatedBy (default \"system\")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&notify, "notify", true, "publish totals-changed messages when AMQP_URL is set")

	rootCmd.AddCommand(recomputeCmd, showCmd, listCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
