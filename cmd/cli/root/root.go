package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "taskvault",
	Short: "Task Vault admin CLI",
	Long:  "Operator tooling for the Task Vault server: user admin, retention purge, migrations.",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the RootCmd for subcommand registration.
func GetRoot() *cobra.Command {
	return RootCmd
}
