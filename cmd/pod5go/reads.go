package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cobra"
)

var (
	readsFilter string
	readsCount  int
	readsIDOnly bool
)

var readsCmd = &cobra.Command{
	Use:   "reads <file>",
	Short: "List reads",
	Long:  `List reads with their metadata, optionally filtered by an expression.`,
	Example: `  pod5go reads run.pod5
  pod5go reads run.pod5 -n 10
  pod5go reads run.pod5 -Y 'read.samples > 4000'
  pod5go reads run.pod5 -Y 'pore.channel == 103 and not end_reason.forced'
  pod5go reads run.pod5 -Y 'run.flow_cell startsWith "FAS"' --ids`,
	Args: cobra.ExactArgs(1),
	RunE: runReads,
}

func init() {
	addOpenFlags(readsCmd.Flags())
	readsCmd.Flags().StringVarP(&readsFilter, "filter", "Y", "", "Filter expression over read metadata")
	readsCmd.Flags().IntVarP(&readsCount, "count", "n", 0, "Stop after n reads (0 = unlimited)")
	readsCmd.Flags().BoolVar(&readsIDOnly, "ids", false, "Print read IDs only")
}

func runReads(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	r, err := openReader(ctx, args[0])
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	var program *vm.Program
	if readsFilter != "" {
		program, err = compileFilter(readsFilter)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	if !readsIDOnly {
		fmt.Fprintln(w, "READ ID\tNUMBER\tCHANNEL\tWELL\tSAMPLES\tEND REASON")
	}

	var printed int
	it := r.Reads(ctx)
	for it.Next() {
		read := it.Read()

		env, err := readToEnv(ctx, read)
		if err != nil {
			return err
		}
		if program != nil {
			ok, err := matchEnv(program, env)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}

		if readsIDOnly {
			fmt.Fprintln(w, env.Read.ID)
		} else {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
				env.Read.ID, env.Read.Number,
				env.Pore.Channel, env.Pore.Well,
				env.Read.Samples, env.EndReason.Name)
		}

		printed++
		if readsCount > 0 && printed >= readsCount {
			break
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	return w.Flush()
}
