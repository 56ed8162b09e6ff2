package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var relationshipsCmd = &cobra.Command{
	Use:   "relationships [userID]",
	Short: "Compute and print relationship analytics for one user",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if apiURL != "" {
			if len(args) != 1 {
				return fmt.Errorf("a user ID is required with --api")
			}
			return getJSON(fmt.Sprintf("%s/api/v1/users/%s/relationships", strings.TrimRight(apiURL, "/"), args[0]))
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

		payload, err := stack.relationships.Run(context.Background(), userID)
		if err != nil {
			return err
		}
		return printJSON(payload)
	},
}

func getJSON(url string) error {
	resp, err := http.Get(url)
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
