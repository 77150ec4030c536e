package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type submitPayload struct {
	RequestText string `json:"request_text"`
	UserID      string `json:"user_id"`
	Priority    string `json:"priority,omitempty"`
}

type classificationView struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

type snippetView struct {
	SourceID       string  `json:"source_id"`
	RelevanceScore float64 `json:"relevance_score"`
	Method         string  `json:"method"`
}

type escalationView struct {
	ShouldEscalate bool   `json:"should_escalate"`
	Reason         string `json:"reason"`
	UrgencyLevel   string `json:"urgency_level"`
}

type submitResultView struct {
	RequestID          string             `json:"request_id"`
	Classification     classificationView `json:"classification"`
	RetrievedKnowledge []snippetView      `json:"retrieved_knowledge"`
	Response           string             `json:"response"`
	Escalation         escalationView     `json:"escalation"`
	ProcessingTime     float64            `json:"processing_time"`
}

// SubmitCmd returns the submit command
func SubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <request text>",
		Short: "Submit a help desk request",
		Long:  "Submit a request to the deskwise server and print the processed result",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSubmit,
	}

	cmd.Flags().StringP("user", "u", "cli", "User ID to submit as")
	cmd.Flags().String("priority", "", "Declared priority (low, medium, high, critical)")
	cmd.Flags().String("api-url", "", "Server base URL (defaults to DESKWISE_API_URL)")
	cmd.Flags().Bool("json", false, "Print the raw JSON result")

	return cmd
}

func runSubmit(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	priority, _ := cmd.Flags().GetString("priority")
	asJSON, _ := cmd.Flags().GetBool("json")

	api := NewAPIClient(cmd)
	resp, err := api.Post("/submit", submitPayload{
		RequestText: strings.Join(args, " "),
		UserID:      userID,
		Priority:    priority,
	})
	if err != nil {
		return err
	}

	if asJSON {
		cmd.Println(string(resp.Data))
		return nil
	}

	var result submitResultView
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}

	cmd.Printf("Request ID:  %s\n", result.RequestID)
	cmd.Printf("Category:    %s (confidence %.2f)\n", result.Classification.Category, result.Classification.Confidence)
	if result.Classification.Reasoning != "" {
		cmd.Printf("Reasoning:   %s\n", result.Classification.Reasoning)
	}

	if len(result.RetrievedKnowledge) > 0 {
		cmd.Println("Knowledge:")
		for _, s := range result.RetrievedKnowledge {
			cmd.Printf("  - %s (score %.2f, via %s)\n", s.SourceID, s.RelevanceScore, s.Method)
		}
	} else {
		cmd.Println("Knowledge:   none found")
	}

	if result.Escalation.ShouldEscalate {
		cmd.Printf("Escalation:  YES [%s] %s\n", result.Escalation.UrgencyLevel, result.Escalation.Reason)
	} else {
		cmd.Printf("Escalation:  no (%s)\n", result.Escalation.UrgencyLevel)
	}

	cmd.Printf("Processed in %.2fs\n\n", result.ProcessingTime)
	cmd.Println(result.Response)
	return nil
}
