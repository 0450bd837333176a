package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/maheshmm7/DriveGaurdAI/internal/config"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	"github.com/maheshmm7/DriveGaurdAI/pkg/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

// EvaluatorFactory builds an evaluator from loaded configuration. The
// returned release func frees its artifacts.
type EvaluatorFactory func(cfg config.PipelineConfig, log *logrus.Logger) (drowsiness.IEvaluator, func() error, error)

func NewRootCommand(factory EvaluatorFactory) *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "drowsyctl",
		Short:         "Evaluate driver drowsiness from still images",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			log.NewLogger().SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newDetectCommand(factory))
	rootCmd.AddCommand(newStreamCommand())

	return rootCmd
}

func Execute(factory EvaluatorFactory) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(factory).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
