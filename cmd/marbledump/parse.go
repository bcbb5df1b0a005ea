package main

import (
	"fmt"

	"github.com/spf13/cobra"

	marble "github.com/milly/gostream-marble"
)

func parseCmd() *cobra.Command {
	var (
		values string
		mode   string
		reason string
	)

	cmd := &cobra.Command{
		Use:   "parse <series>",
		Short: "Parse a series string and print its frames",
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
			var body string
			for _, f := range fl.Frames {
				body += fmt.Sprintf("tick %-4d  %-9s  value=%v reason=%v\n", f.Tick, f.Kind, f.Value, f.Reason)
			}
			body += fmt.Sprintf("extent=%d", fl.Extent)
			fmt.Println(boxStyle.Render(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&values, "values", "", "value table as k=v,k=v")
	cmd.Flags().StringVar(&mode, "mode", "readable", "grammar mode: readable|writable|abort")
	cmd.Flags().StringVar(&reason, "reason", "", "reason attached to the series' terminal frame")
	return cmd
}
