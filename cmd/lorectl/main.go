// lorectl is the operator CLI for the analytics engine. It can run continuity
// analysis or relationship analytics for one user, either locally against a
// fixtures file or through a running API, and invalidate a user's cache.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL       string
	fixturesPath string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "lorectl",
	Short: "Lorekeeper continuity and relationship analytics operations",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Base URL of a running analytics API (e.g. http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&fixturesPath, "fixtures", "", "Path to a JSON fixtures file for a local run")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(relationshipsCmd)
	rootCmd.AddCommand(invalidateCmd)
}
