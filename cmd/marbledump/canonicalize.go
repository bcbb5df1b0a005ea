package main

import (
	"fmt"

	"github.com/spf13/cobra"

	marble "github.com/milly/gostream-marble"
)

func canonicalizeCmd() *cobra.Command {
	var (
		values string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "canonicalize <series>",
		Short: "Print a series' canonical form (whitespace stripped, same-tick frames grouped)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := parseValueTable(values)
			if err != nil {
				return err
			}
			m, err := parseMode(mode)
			if err != nil {
				return err
			}
			out, err := marble.Canonicalize(args[0], vt, m)
			if err != nil {
				return err
			}
			fmt.Println(boxStyle.Render(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&values, "values", "", "value table as k=v,k=v")
	cmd.Flags().StringVar(&mode, "mode", "readable", "grammar mode: readable|writable|abort")
	return cmd
}
