// Command marbledump parses, renders, and canonicalizes marble series
// strings from the command line — a small diagnostic tool for inspecting a
// series without writing a Go test around it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marbledump",
		Short: "Inspect marble series strings from the command line",
	}
	cmd.AddCommand(parseCmd(), renderCmd(), canonicalizeCmd())
	return cmd
}
