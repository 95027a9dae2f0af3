package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var signalChunk int

var signalCmd = &cobra.Command{
	Use:   "signal <file> <read-id>",
	Short: "Dump one read's signal samples",
	Long: `Print a read's signal as one sample per line, reconstructed across
all of its chunks. Use --chunk to dump a single chunk instead.`,
	Example: `  pod5go signal run.pod5 0047b4a7-2526-4c4e-b067-55c9b5a79e5d
  pod5go signal run.pod5 0047b4a7-2526-4c4e-b067-55c9b5a79e5d --chunk 0`,
	Args: cobra.ExactArgs(2),
	RunE: runSignal,
}

func init() {
	addOpenFlags(signalCmd.Flags())
	signalCmd.Flags().IntVar(&signalChunk, "chunk", -1, "Dump only the given chunk (default: all samples)")
}

func runSignal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := uuid.Parse(args[1])
	if err != nil {
		return fmt.Errorf("invalid read id %q: %w", args[1], err)
	}

	r, err := openReader(ctx, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	it := r.SelectReads(ctx, id)
	if !it.Next() {
		if err := it.Err(); err != nil {
			return err
		}
		return fmt.Errorf("read %s not found", id)
	}
	read := it.Read()

	var samples []int16
	if signalChunk >= 0 {
		samples, err = read.SignalForChunk(ctx, signalChunk)
	} else {
		samples, err = read.Signal(ctx)
	}
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	for _, s := range samples {
		w.WriteString(strconv.Itoa(int(s)))
		w.WriteByte('\n')
	}
	return w.Flush()
}
