package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tendril",
	Short: "Tendril is a polling function execution runtime",
	Long: `Tendril polls a Redis key for new input, runs a user-supplied Lua
handler against it, and republishes the result under an output key.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Mirror the container behavior: a local .env supplements the
		// environment but injected variables always win.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
