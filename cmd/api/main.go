package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dailybuddy/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dailybuddy",
		Short: "DailyBuddy reminder and focus server",
		Long:  `DailyBuddy is a personal productivity server: reminders, medications, tasks, habits, and a pomodoro timer, with a polling scheduler that delivers due notifications exactly once.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewPasswordCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
