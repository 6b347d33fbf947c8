package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/config"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/spf13/cobra"
)

// runCmd starts the poll loop. It never exits zero: either startup fails
// (non-zero) or the process runs until it is killed.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the function execution runtime",
	Long: `Loads the handler script, connects to the store and enters the
poll-execute-publish loop. Configuration comes from REDIS_HOST, REDIS_PORT,
REDIS_INPUT_KEY and REDIS_OUTPUT_KEY; REDIS_OUTPUT_KEY is required.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(1)
		}

		logger := logging.New(cfg.LogLevel)

		handlerPath := cfg.HandlerPath
		if flagPath, _ := cmd.Flags().GetString("handler"); flagPath != "" {
			handlerPath = flagPath
		}

		opts := []tendril.Option{
			tendril.WithStoreAddr(cfg.Host, cfg.Port),
			tendril.WithDB(cfg.DB),
			tendril.WithInputKey(cfg.InputKey),
			tendril.WithHandlerPath(handlerPath),
			tendril.WithPollInterval(cfg.PollInterval),
			tendril.WithLogger(logger),
		}
		if retry, _ := cmd.Flags().GetBool("retry-on-failure"); retry {
			opts = append(opts, tendril.WithMarkerPolicy(tendril.RetryOnFailure))
		}

		rt, err := tendril.New(cfg.OutputKey, opts...)
		if err != nil {
			logger.Error("startup failed", "err", err)
			os.Exit(1)
		}
		defer rt.Close()

		logger.Info("handler loaded", "path", handlerPath)

		// Runs until the process is terminated; the loop never stops itself.
		if err := rt.Run(context.Background()); err != nil {
			logger.Error("runtime stopped", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("handler", "", "Handler script path (overrides TENDRIL_HANDLER)")
	runCmd.Flags().Bool("retry-on-failure", false, "Re-process an input whose cycle failed instead of waiting for it to change")
}
