package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [userID]",
	Short: "Run continuity analysis for one user",
	Long: `Runs the six continuity detectors for one user and prints the result.

With --api the run is triggered on a running service. With --fixtures the run
happens in-process against the fixtures file; the user ID argument is then
optional and defaults to the fixtures' user.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if apiURL != "" {
			if len(args) != 1 {
				return fmt.Errorf("a user ID is required with --api")
			}
			return postJSON(fmt.Sprintf("%s/api/v1/users/%s/analysis", strings.TrimRight(apiURL, "/"), args[0]))
		}
		if fixturesPath == "" {
			return fmt.Errorf("specify --api <url> or --fixtures <path>")
		}

		stack, err := loadLocalStack(fixturesPath)
		if err != nil {
			return err
		}
		userID := stack.userID
		if len(args) == 1 {
			userID = args[0]
		}

		result, err := stack.orchestrator.RunAnalysis(context.Background(), userID)
		if err != nil {
			return err
		}

		fmt.Printf("Analysis for %s: %d events\n", result.UserID, len(result.Events))
		for eventType, count := range result.Summary {
			fmt.Printf("  %-22s %d\n", eventType, count)
		}
		for _, insight := range stack.backend.Insights.All() {
			fmt.Printf("Insight [%s] (%.0f%%): %s\n", insight.InsightType, insight.Confidence*100, insight.Text)
		}
		return nil
	},
}

func postJSON(url string) error {
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("call API: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	fmt.Println(strings.TrimSpace(string(body)))
	return nil
}
