package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagamachi/meiten/internal/auth"
	"github.com/wagamachi/meiten/internal/di"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Long: `Create a user account.

Example:
  meiten users create --email taro@example.com --password 'secret-pass' --name たろう`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		name, _ := cmd.Flags().GetString("name")

		container := di.NewContainer(cfg)
		if err := container.InitDatabase(); err != nil {
			return err
		}
		defer container.Close()

		if err := container.GetDatabaseFactory().AutoMigrate(); err != nil {
			return err
		}

		// 仅注册，不签发 token
		svc := auth.NewLoginService(container.GetRepositories().Accounts, nil, container.PasswordHasher())
		user, err := svc.Register(cmd.Context(), auth.RegisterRequest{
			Email:       email,
			Password:    password,
			DisplayName: name,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user created: %s (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd)

	usersCreateCmd.Flags().String("email", "", "login email")
	usersCreateCmd.Flags().String("password", "", "login password")
	usersCreateCmd.Flags().String("name", "", "display name")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")
}
