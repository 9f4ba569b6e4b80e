// Command heatmapctl generates sample files and renders heatmap frames
// offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "heatmapctl",
	Short: "Generate sample data and render heatmap frames",
	Long: `heatmapctl works with YAML sample files outside the server.

Examples:
  heatmapctl generate --count 500 --seed 42 -o samples.yaml
  heatmapctl render --samples samples.yaml --script zoom.yaml -o frame.png`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
