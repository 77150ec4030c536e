package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type classifyPayload struct {
	RequestText string `json:"request_text"`
}

// ClassifyCmd returns the classify command
func ClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <request text>",
		Short: "Classify a request without processing it",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runClassify,
	}

	cmd.Flags().String("api-url", "", "Server base URL (defaults to DESKWISE_API_URL)")
	cmd.Flags().Bool("json", false, "Print the raw JSON result")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	api := NewAPIClient(cmd)
	resp, err := api.Post("/classify", classifyPayload{
		RequestText: strings.Join(args, " "),
	})
	if err != nil {
		return err
	}

	if asJSON {
		cmd.Println(string(resp.Data))
		return nil
	}

	var result classificationView
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}

	cmd.Printf("Category:   %s\n", result.Category)
	cmd.Printf("Confidence: %.2f\n", result.Confidence)
	if result.Reasoning != "" {
		cmd.Printf("Reasoning:  %s\n", result.Reasoning)
	}
	return nil
}
