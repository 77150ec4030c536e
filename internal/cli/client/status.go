package client

import (
	"github.com/spf13/cobra"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		RunE:  runStatus,
	}

	cmd.Flags().String("api-url", "", "Server base URL (defaults to DESKWISE_API_URL)")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	api := NewAPIClient(cmd)
	resp, err := api.Get("/status")
	if err != nil {
		return err
	}

	cmd.Println(string(resp.Data))
	return nil
}
