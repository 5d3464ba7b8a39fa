package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sudssf/jvm-hprof-go/hprof"
	"github.com/sudssf/jvm-hprof-go/internal/scan"
	"github.com/sudssf/jvm-hprof-go/utils"
)

var recordsCmd = &cobra.Command{
	Use:               "records [hprof-file]",
	Short:             "Summarize the records of a heap dump",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".hprof"}),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDump(args[0])
		if err != nil {
			return err
		}
		defer d.Close()

		tables, err := scan.Collect(d)
		if err != nil {
			return err
		}

		h := d.Header()
		fmt.Println(utils.TitleStyle.Render(args[0]))
		fmt.Printf("%s  ids: %d bytes  captured: %s  size: %s\n\n",
			h.Format, h.IdentifierSize, h.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			utils.MemorySize(d.Size()))

		tags := make([]hprof.HProfTagRecord, 0, len(tables.Records))
		for tag := range tables.Records {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool {
			return tables.Records[tags[i]].Bytes > tables.Records[tags[j]].Bytes
		})

		fmt.Println(utils.HeaderStyle.Render(fmt.Sprintf("%-20s %12s %12s", "record", "count", "bytes")))
		for _, tag := range tags {
			stat := tables.Records[tag]
			fmt.Printf("%-20s %12d %12s\n", tag, stat.Count, utils.MemorySize(stat.Bytes))
		}

		if len(tables.SubRecords) > 0 {
			fmt.Println()
			fmt.Println(utils.HeaderStyle.Render(fmt.Sprintf("%-20s %12s", "heap sub-record", "count")))
			subTags := make([]hprof.HProfTagSubRecord, 0, len(tables.SubRecords))
			for tag := range tables.SubRecords {
				subTags = append(subTags, tag)
			}
			sort.Slice(subTags, func(i, j int) bool {
				return tables.SubRecords[subTags[i]] > tables.SubRecords[subTags[j]]
			})
			for _, tag := range subTags {
				fmt.Printf("%-20s %12d\n", tag, tables.SubRecords[tag])
			}
		}

		return nil
	},
}

// openDump maps an .hprof file, with a friendlier message for the
// common mistakes.
func openDump(filename string) (*hprof.Dump, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filename)
	}

	d, err := hprof.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return d, nil
}

func init() {
	rootCmd.AddCommand(recordsCmd)
}
