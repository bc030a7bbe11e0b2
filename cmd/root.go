package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wagamachi/meiten/config"
	"github.com/wagamachi/meiten/internal/logger"
)

var (
	configPath string
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "meiten",
	Short:   "わが町の名店 story service",
	Version: config.VersionString(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logger.Init(loaded.AppEnv, loaded.LogLevel); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (eg: /etc/meiten/.env)")
}
