package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/squigglekit/pod5go/pod5"
)

var combineOutput string

var combineCmd = &cobra.Command{
	Use:   "combine <reads-table> <signal-table>",
	Short: "Package split tables into a combined container",
	Long: `Package a read table and a signal table into a single combined
container. The table bytes are embedded unchanged; the container footer
records the signal codec so readers need no options.`,
	Example: `  pod5go combine run.reads.parquet run.signal.parquet -o run.pod5`,
	Args:    cobra.ExactArgs(2),
	RunE:    runCombine,
}

func init() {
	combineCmd.Flags().StringVarP(&combineOutput, "output", "o", "", "Output path (required)")
	_ = combineCmd.MarkFlagRequired("output")
}

func runCombine(cmd *cobra.Command, args []string) error {
	readsBytes, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	signalBytes, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	// Validate both tables and pick up the codec before packaging.
	if _, err := pod5.OpenParquetReadTable(pod5.NewBytesSource(readsBytes)); err != nil {
		return fmt.Errorf("read table %s: %w", args[0], err)
	}
	signalTable, err := pod5.OpenParquetSignalTable(pod5.NewBytesSource(signalBytes))
	if err != nil {
		return fmt.Errorf("signal table %s: %w", args[1], err)
	}

	out, err := os.Create(combineOutput)
	if err != nil {
		return err
	}
	if err := pod5.WriteContainer(out, readsBytes, signalBytes, signalTable.CodecName()); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d + %d table bytes)\n",
		combineOutput, len(readsBytes), len(signalBytes))
	return nil
}
