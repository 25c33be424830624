package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/anujaroke/Task-Vault/cmd/cli/conn"
	"github.com/anujaroke/Task-Vault/cmd/cli/root"
	"github.com/anujaroke/Task-Vault/internal/repo"
)

// minPurgeHours keeps the purge window well clear of the 6-hour visibility
// window, so a purge can never remove a task that would still be listed.
const minPurgeHours = 24

// ==========================
// CLI Command Init
// ==========================
func init() {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task maintenance",
	}

	tasksCmd.AddCommand(purgeCmd())
	root.GetRoot().AddCommand(tasksCmd)
}

// ==========================
// Purge Completed Tasks
// ==========================
func purgeCmd() *cobra.Command {
	var olderThanHours int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Hard-delete tasks completed long ago",
		Long: `Hard-delete tasks (all users) whose completion timestamp is older than
--older-than hours. The web surface only hides old completed tasks; this is
the one place rows are actually removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThanHours < minPurgeHours {
				return fmt.Errorf("--older-than must be at least %d hours", minPurgeHours)
			}

			database, _, err := conn.Open()
			if err != nil {
				return err
			}
			defer database.Close()

			cutoff := time.Now().Add(-time.Duration(olderThanHours) * time.Hour)
			n, err := repo.NewTaskRepo(database).PurgeCompletedBefore(context.Background(), cutoff)
			if err != nil {
				return fmt.Errorf("purge tasks: %w", err)
			}

			fmt.Printf("Purged %d task(s) completed before %s\n", n, cutoff.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThanHours, "older-than", 720, "purge tasks completed more than this many hours ago")
	return cmd
}
