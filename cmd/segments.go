package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sudssf/jvm-hprof-go/internal/scan"
	"github.com/sudssf/jvm-hprof-go/utils"
)

var (
	segmentsParallel bool
	segmentsWorkers  int
)

var segmentsCmd = &cobra.Command{
	Use:               "segments [hprof-file]",
	Short:             "Inventory the heap dump segments",
	Long:              "Enumerates every heap dump segment body with its offset and length. With --parallel the segments are decoded concurrently, one worker per segment up to --workers.",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".hprof"}),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDump(args[0])
		if err != nil {
			return err
		}
		defer d.Close()

		segments, err := d.Segments()
		if err != nil {
			return err
		}

		fmt.Println(utils.HeaderStyle.Render(fmt.Sprintf("%4s %14s %12s", "#", "offset", "length")))
		var total uint64
		for i, seg := range segments {
			fmt.Printf("%4d %14d %12s\n", i, seg.Offset, utils.MemorySize(seg.Length))
			total += uint64(seg.Length)
		}
		fmt.Printf("\n%d segments, %s of heap data\n", len(segments), utils.MemorySize(total))

		if !segmentsParallel {
			return nil
		}

		start := time.Now()
		tables, err := scan.CollectParallel(cmd.Context(), d, segmentsWorkers)
		if err != nil {
			return err
		}

		var subs uint64
		for _, n := range tables.SubRecords {
			subs += n
		}
		fmt.Printf("\ndecoded %d sub-records in %s\n", subs, time.Since(start).Round(time.Millisecond))
		for tag, n := range tables.SubRecords {
			fmt.Printf("  %-20s %12d\n", tag, n)
		}
		return nil
	},
}

func init() {
	segmentsCmd.Flags().BoolVar(&segmentsParallel, "parallel", false, "decode segments concurrently")
	segmentsCmd.Flags().IntVar(&segmentsWorkers, "workers", 0, "worker goroutines (default GOMAXPROCS)")
	rootCmd.AddCommand(segmentsCmd)
}
