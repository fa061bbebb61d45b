package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmate/server/cmd/api/commands"
)

// @title TaskMate API
// @version 1.0
// @description Coin-economy task accountability service for small groups

// @contact.name TaskMate Support
// @contact.url https://github.com/taskmate/server

// @license.name MIT
// @license.url https://github.com/taskmate/server/blob/main/LICENSE

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskmate",
		Short: "TaskMate API Server",
		Long:  `TaskMate keeps small accountability groups honest: tasks earn coins on completion, overdue tasks cost coins, and group standings reset on a weekly, biweekly or monthly cadence.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSweepCommand())
	rootCmd.AddCommand(commands.NewUserCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
