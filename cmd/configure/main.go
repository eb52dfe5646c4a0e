package main

import (
	"fmt"
	"os"

	"github.com/bakiel/jasper-portal-api/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "jasper-portal-configure",
		Short: "Configuration tool for the Jasper portal API",
		Long:  "CLI tool for managing runtime configuration, client accounts, and the SMTP relay",
	}

	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewClientsCmd())
	rootCmd.AddCommand(commands.NewSMTPCmd())
	rootCmd.AddCommand(commands.NewHashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
