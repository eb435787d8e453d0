package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "returnsctl",
		Short:   "Operator tools for the returns ledger service",
		Version: Version,
	}

	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(countCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
