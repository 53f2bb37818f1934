package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicepipe/voicepipe/internal/config"
	"github.com/voicepipe/voicepipe/pkg/cache/sqlite"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent audio cache",
		Long:  "Inspects and clears the sqlite audio cache. The in-memory store has no offline state to manage.",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := sqlite.New(cfg.CacheDBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.Len(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Store:   %s\nEntries: %d\nTTL:     %s\n", cfg.CacheDBPath, n, cfg.CacheTTL)
			return nil
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := sqlite.New(cfg.CacheDBPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if expiredOnly {
				if err := store.ClearExpired(context.Background()); err != nil {
					return err
				}
				fmt.Println("Expired cache entries cleared.")
				return nil
			}
			if err := store.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Println("All cache entries cleared.")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
