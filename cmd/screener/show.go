package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantdesk/screener/internal/export"
)

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print an exported report, decompressing .zst files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := export.ReadLines(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}

	return cmd
}
