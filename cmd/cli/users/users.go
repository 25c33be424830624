package users

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anujaroke/Task-Vault/cmd/cli/conn"
	"github.com/anujaroke/Task-Vault/cmd/cli/output"
	"github.com/anujaroke/Task-Vault/cmd/cli/root"
	"github.com/anujaroke/Task-Vault/internal/auth"
	"github.com/anujaroke/Task-Vault/internal/repo"
)

// ==========================
// CLI Command Init
// ==========================
func init() {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	usersCmd.AddCommand(createUserCmd(), listUsersCmd())
	root.GetRoot().AddCommand(usersCmd)
}

// ==========================
// Create User
// ==========================
func createUserCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user directly in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			database, _, err := conn.Open()
			if err != nil {
				return err
			}
			defer database.Close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			user, err := repo.NewUserRepo(database).Create(context.Background(), username, hash)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Printf("Created user %q (id=%d)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username (unique)")
	cmd.Flags().StringVar(&password, "password", "", "password (stored as bcrypt hash)")
	return cmd
}

// ==========================
// List Users
// ==========================
func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, _, err := conn.Open()
			if err != nil {
				return err
			}
			defer database.Close()

			users, err := repo.NewUserRepo(database).List(context.Background())
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}

			rows := make([][]interface{}, 0, len(users))
			for _, u := range users {
				rows = append(rows, []interface{}{u.ID, u.Username})
			}
			output.RenderTable([]string{"ID", "Username"}, rows)
			return nil
		},
	}
}
