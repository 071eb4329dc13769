// cmd/fiscal-assistant/seed.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fiscal-assistant/internal/common/database"
	"fiscal-assistant/pkg/corpus"
)

func seedCmd() *cobra.Command {
	var file string
	var index string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Index a knowledge corpus file into Elasticsearch",
		Long: `Loads a YAML or JSON corpus of question/answer documents and bulk-indexes it.
The index is created with the French analysis mapping when it does not exist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			log := newLogger(cfg)
			defer log.Sync()

			c, err := corpus.Load(file)
			if err != nil {
				return err
			}

			target := index
			if target == "" {
				target = c.Index
			}
			if target == "" {
				target = cfg.Search.Index
			}

			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(cmd.Context()); err != nil {
				return err
			}

			stats, err := corpus.Index(cmd.Context(), es.Client, target, c, log)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ %d documents indexed into %s (%d failed)\n", stats.Indexed, target, stats.Failed)
			if stats.Failed > 0 {
				return fmt.Errorf("%d documents failed to index", stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "corpus file (.yaml or .json)")
	cmd.Flags().StringVar(&index, "index", "", "target index (default search.index)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
