// Command pod5go inspects nanopore sequencing files from the command line.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pod5go",
	Short: "Inspect nanopore sequencing files",
	Long: `pod5go reads combined containers and split read/signal tables,
locally or straight from S3.

Examples:
  pod5go inspect run.pod5                          # File summary
  pod5go reads run.pod5                            # List all reads
  pod5go reads run.pod5 -Y 'read.samples > 4000'   # Filtered listing
  pod5go signal run.pod5 0047b4a7-...              # Dump one read's samples
  pod5go combine reads.parquet signal.parquet -o run.pod5
  pod5go inspect s3://bucket/runs/run.pod5         # Read from S3`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(readsCmd)
	rootCmd.AddCommand(signalCmd)
	rootCmd.AddCommand(combineCmd)
}
