package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sudssf/jvm-hprof-go/internal/scan"
	"github.com/sudssf/jvm-hprof-go/utils"
)

var classesCmd = &cobra.Command{
	Use:               "classes [hprof-file]",
	Short:             "List loaded classes as CSV",
	Long:              "Resolves every LOAD_CLASS record against the dump's string table and writes serial, class object id, name, instance count and shallow bytes to stdout.",
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

		loaded := make([]scanClassRow, 0, len(tables.Loaded))
		for classID, lc := range tables.Loaded {
			row := scanClassRow{
				serial:  uint32(lc.ClassSerialNumber),
				classID: uint64(classID),
				name:    tables.ClassName(classID),
			}
			if stat, ok := tables.Instances[classID]; ok {
				row.count = stat.Count
				row.bytes = stat.Bytes
			}
			loaded = append(loaded, row)
		}
		sort.Slice(loaded, func(i, j int) bool { return loaded[i].serial < loaded[j].serial })

		w := csv.NewWriter(os.Stdout)
		if err := w.Write([]string{"serial", "class_id", "name", "instances", "shallow_bytes"}); err != nil {
			return err
		}
		for _, row := range loaded {
			record := []string{
				fmt.Sprintf("%d", row.serial),
				fmt.Sprintf("0x%x", row.classID),
				row.name,
				fmt.Sprintf("%d", row.count),
				fmt.Sprintf("%d", row.bytes),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	},
}

type scanClassRow struct {
	serial  uint32
	classID uint64
	name    string
	count   uint64
	bytes   uint64
}

func init() {
	rootCmd.AddCommand(classesCmd)
}
