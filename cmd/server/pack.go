package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jengzang/dialysis-locator-go/internal/dataset"
)

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack <centers.json> [output.json.zst]",
	Short: "Compresses a center dataset with zstd.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		dst := src + ".zst"
		if len(args) == 2 {
			dst = args[1]
		}

		n, err := dataset.Compress(src, dst)
		if err != nil {
			return err
		}
		fmt.Printf("packed %d centers into %s\n", n, dst)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
}
