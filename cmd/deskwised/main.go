package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskwise/deskwise/internal/cli"
	"github.com/deskwise/deskwise/internal/cli/client"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "deskwised",
		Short: "Deskwise daemon and CLI",
		Long:  "Deskwise daemon for running the help desk API server and submitting requests to it",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(client.SubmitCmd())
	rootCmd.AddCommand(client.ClassifyCmd())
	rootCmd.AddCommand(client.StatusCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
