package main

import (
	"fmt"
	"os"

	"github.com/anujaroke/Task-Vault/cmd/cli/root"

	// Register subcommands.
	_ "github.com/anujaroke/Task-Vault/cmd/cli/migrate"
	_ "github.com/anujaroke/Task-Vault/cmd/cli/tasks"
	_ "github.com/anujaroke/Task-Vault/cmd/cli/users"
)

func main() {
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
