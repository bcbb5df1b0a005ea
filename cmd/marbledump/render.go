package main

import (
	"fmt"

	"github.com/spf13/cobra"

	marble "github.com/milly/gostream-marble"
)

func renderCmd() *cobra.Command {
	var (
		values string
		mode   string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "render <series>",
		Short: "Parse then re-render a series, proving it round-trips",
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
			var terminalReason any
			if reason != "" {
				terminalReason = reason
			}
			fl, err := marble.Parse(args[0], vt, terminalReason, m)
			if err != nil {
				return err
			}
			out, err := marble.Render(fl, vt)
			if err != nil {
				return err
			}
			fmt.Println(boxStyle.Render(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&values, "values", "", "value table as k=v,k=v")
	cmd.Flags().StringVar(&mode, "mode", "readable", "grammar mode: readable|writable|abort")
	cmd.Flags().StringVar(&reason, "reason", "", "reason attached to the series' terminal frame")
	return cmd
}
