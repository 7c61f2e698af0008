package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	strict  bool
	timeout time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "topikctl",
	Short: "Import, patch and export TOPIK II question workbooks",
	Long: `topikctl works on the same database as the topikbank server.

Database settings come from the environment (DB_DRIVER, DB_DSN) or a .env file
in the working directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	previewCmd.Flags().BoolVar(&strict, "strict", false, "Treat unrecognized correct answers as row errors")
	importCmd.Flags().BoolVar(&strict, "strict", false, "Treat unrecognized correct answers as row errors")
	patchCmd.Flags().StringVar(&patchSheetName, "sheet", "", "Worksheet to read corrections from (default: first exam sheet)")
	templateCmd.Flags().StringVar(&templatePaper, "paper", "reading", "Paper type: reading or listening")
	templateCmd.Flags().IntVar(&templateRound, "round", 0, "Round number used for the sheet name")
	hashKeyCmd.Flags().IntVar(&hashCost, "cost", 12, "bcrypt cost")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(patchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(hashKeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func cliLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
