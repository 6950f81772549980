package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qlp-hq/production-scheduler/internal/cache"
	"github.com/qlp-hq/production-scheduler/internal/config"
	"github.com/qlp-hq/production-scheduler/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the catalog loads and backing services are reachable",
	Run: func(cmd *cobra.Command, args []string) {
		runCfg := config.LoadRunConfig()
		ok := true

		if _, err := loadPipeline(runCfg.CatalogPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ catalog: %v\n", err)
			ok = false
		} else {
			fmt.Fprintln(os.Stderr, "✓ catalog loads and builds a valid dependency graph")
		}

		db, err := store.New(config.GetPostgresDSN())
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ run store: %v\n", err)
			ok = false
		} else {
			if db.IsConnected() {
				fmt.Fprintln(os.Stderr, "✓ run store connected")
			} else {
				fmt.Fprintln(os.Stderr, "⚠ run store unreachable, falling back to in-memory")
			}
			db.Close()
		}

		if rc, err := cache.NewRedisCache(context.Background(), config.GetRedisAddr()); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ cache backend unreachable, falling back to in-memory: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "✓ cache backend connected")
			rc.Close()
		}

		if !ok {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
