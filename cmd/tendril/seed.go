package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	redisAdapter "github.com/aretw0/tendril/pkg/adapters/redis"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// mockPayload mirrors the demo metrics produced by a typical VM collector.
func mockPayload() map[string]any {
	return map[string]any{
		"percent-network-egress": 100.00,
		"percent-memory-cache":   100.00,
		"avg-util-cpu0-60sec":    25.45,
		"avg-util-cpu1-60sec":    25.89,
		"avg-util-cpu2-60sec":    0.34,
		"avg-util-cpu3-60sec":    1.12,
	}
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a demo metrics payload to the input key",
	Long: `Seeds the store with a mock metrics JSON object so the runtime and
dashboard have something to chew on. Use --file to seed a custom payload
from a JSON or YAML file instead of the built-in mock.`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		db, _ := cmd.Flags().GetInt("db")
		key, _ := cmd.Flags().GetString("key")
		file, _ := cmd.Flags().GetString("file")

		payload := mockPayload()
		if file != "" {
			loaded, err := loadPayloadFile(file)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading payload: %v\n", err)
				os.Exit(1)
			}
			payload = loaded
		}

		encoded, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding payload: %v\n", err)
			os.Exit(1)
		}

		store := redisAdapter.New(host, port, db)
		defer store.Close()

		if err := store.Set(context.Background(), key, encoded); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing payload: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Seeded key '%s' on %s:%d/%d\n", key, host, port, db)
		fmt.Printf("Payload: %s\n", encoded)
	},
}

// loadPayloadFile reads a JSON or YAML object from disk. YAML covers JSON
// too, but .json files go through encoding/json so error messages stay
// familiar.
func loadPayloadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}
	if payload == nil {
		return nil, fmt.Errorf("%s does not contain an object", path)
	}
	return payload, nil
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("host", envOr("REDIS_HOST", "localhost"), "Redis host")
	seedCmd.Flags().Int("port", envIntOr("REDIS_PORT", 6379), "Redis port")
	seedCmd.Flags().Int("db", envIntOr("REDIS_DB", 0), "Redis logical DB")
	seedCmd.Flags().String("key", envOr("REDIS_INPUT_KEY", "metrics"), "Key to seed")
	seedCmd.Flags().String("file", "", "Seed payload from a JSON or YAML file")
}
