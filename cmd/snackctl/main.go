package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:   "snackctl",
		Short: "Terminal client for the SnackZinabi ordering backend",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("SNACKZINABI_URL", "http://localhost:8000"), "API server base URL")

	root.AddCommand(healthCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
