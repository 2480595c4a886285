package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Convert a spreadsheet between .xml and .xlsx",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}
			if err := a.store.Save(cmd.Context(), args[1], s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d cells to %s\n", len(s.GetNonemptyCellNames()), args[1])
			return nil
		},
	}
}
