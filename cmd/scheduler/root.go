package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qlp-hq/production-scheduler/internal/config"
	"github.com/qlp-hq/production-scheduler/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Deterministic production scheduler",
	Long:  "scheduler builds the dependency graph for a product catalog and runs the capacity-aware scheduler or a workforce optimizer policy over it.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLoggerFromConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .scheduler.yaml)")
	rootCmd.PersistentFlags().String("catalog", "", "path to catalog JSON file")
	rootCmd.PersistentFlags().String("output", "", "path to write result JSON (default stdout)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	viper.BindPFlag("catalog_path", rootCmd.PersistentFlags().Lookup("catalog"))
	viper.BindPFlag("output_path", rootCmd.PersistentFlags().Lookup("output"))
}

func initConfig() {
	config.LoadEnv()

	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".scheduler")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("SCHED")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

func initLoggerFromConfig() {
	verbose, _ := rootCmd.Flags().GetBool("verbose")
	logCfg := logger.DefaultConfig()
	if verbose {
		logCfg.Level = logger.DEBUG
	}
	if err := logger.InitLogger(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "scheduler: failed to init logger: %v\n", err)
		os.Exit(1)
	}
}
