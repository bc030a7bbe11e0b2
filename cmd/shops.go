package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wagamachi/meiten/internal/di"
	"github.com/wagamachi/meiten/internal/shop"
)

var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "Manage canonical shops",
}

var shopsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import shops from a YAML file",
	Long: `Import canonical shops from a YAML file. Shops whose (name, area, genre)
already exist are skipped.

Example:
  meiten shops import ./shops.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		seed, err := shop.ParseSeed(f)
		if err != nil {
			return err
		}

		container := di.NewContainer(cfg)
		if err := container.InitDatabase(); err != nil {
			return err
		}
		defer container.Close()

		if err := container.GetDatabaseFactory().AutoMigrate(); err != nil {
			return err
		}

		res, err := shop.Import(cmd.Context(), container.GetRepositories().Shops, seed)
		if err != nil {
			return err
		}
		zap.L().Info("Shops imported", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
		fmt.Fprintf(cmd.OutOrStdout(), "created: %d, skipped: %d\n", res.Created, res.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shopsCmd)
	shopsCmd.AddCommand(shopsImportCmd)
}
