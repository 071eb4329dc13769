// cmd/fiscal-assistant/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fiscal-assistant/internal/common/config"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "fiscal-assistant",
		Short: "Conversational assistant for Senegalese taxation",
		Long: `fiscal-assistant answers questions on Senegalese taxation from a curated
knowledge base indexed in Elasticsearch, through an HTTP API or an interactive chat.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default configs/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.Load()
}
