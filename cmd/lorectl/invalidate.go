package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <userID>",
	Short: "Drop a user's cached analytics payloads on a running service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if apiURL == "" {
			return fmt.Errorf("--api is required for invalidate")
		}

		url := fmt.Sprintf("%s/api/v1/users/%s/cache", strings.TrimRight(apiURL, "/"), args[0])
		req, err := http.NewRequest(http.MethodDelete, url, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("call API: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		}
		fmt.Printf("cache invalidated for %s\n", args[0])
		return nil
	},
}
