package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sudssf/jvm-hprof-go/internal/scan"
	"github.com/sudssf/jvm-hprof-go/internal/top"
	"github.com/sudssf/jvm-hprof-go/utils"
)

var topCmd = &cobra.Command{
	Use:               "top [hprof-file]",
	Short:             "Browse the largest classes by shallow size",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension([]string{".hprof"}),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDump(args[0])
		if err != nil {
			return err
		}
		defer d.Close()

		tables, err := scan.CollectParallel(cmd.Context(), d, 0)
		if err != nil {
			return err
		}

		return top.Run(tables)
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
}
