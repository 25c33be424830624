package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anujaroke/Task-Vault/cmd/cli/root"
	"github.com/anujaroke/Task-Vault/internal/config"
	"github.com/anujaroke/Task-Vault/internal/db"
)

func init() {
	root.GetRoot().AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := db.Run(cfg.DatabaseURL()); err != nil {
				return err
			}
			fmt.Println("Migrations applied")
			return nil
		},
	})
}
