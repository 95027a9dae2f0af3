package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/squigglekit/pod5go/pod5"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print a summary of a file",
	Long:  `Print batch layout, read counts, and acquisition metadata.`,
	Example: `  pod5go inspect run.pod5
  pod5go inspect reads.parquet -s signal.parquet
  pod5go inspect s3://bucket/runs/run.pod5`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	addOpenFlags(inspectCmd.Flags())
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := openReader(ctx, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:        %s\n", args[0])
	fmt.Fprintf(out, "Batches:     %d\n", r.BatchCount())

	var (
		reads   int
		samples uint64
		bytes   uint64
		runInfo *pod5.RunInfoData
	)
	it := r.Reads(ctx)
	for it.Next() {
		read := it.Read()
		reads++

		n, err := read.SampleCount(ctx)
		if err != nil {
			return err
		}
		samples += n

		b, err := read.ByteCount(ctx)
		if err != nil {
			return err
		}
		bytes += b

		if runInfo == nil {
			info, err := read.RunInfo()
			if err != nil {
				return err
			}
			runInfo = &info
		}
	}
	if err := it.Err(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Reads:       %d\n", reads)
	fmt.Fprintf(out, "Samples:     %d\n", samples)
	fmt.Fprintf(out, "Signal size: %d bytes\n", bytes)

	if runInfo != nil {
		fmt.Fprintf(out, "\nAcquisition: %s\n", runInfo.AcquisitionID)
		fmt.Fprintf(out, "Started:     %s\n", runInfo.AcquisitionStart.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(out, "Flow cell:   %s\n", runInfo.FlowCellID)
		fmt.Fprintf(out, "Sample:      %s\n", runInfo.SampleID)
		fmt.Fprintf(out, "Sample rate: %d Hz\n", runInfo.SampleRate)
		fmt.Fprintf(out, "Kit:         %s\n", runInfo.SequencingKit)
		fmt.Fprintf(out, "System:      %s (%s)\n", runInfo.SystemName, runInfo.SystemType)
	}
	return nil
}
