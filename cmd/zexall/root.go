package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zexall",
	Short: "Run Z80 conformance ROMs against the cpu package",
	Long: `zexall drives ZEXALL/ZEXDOC-style conformance ROMs against the
CPU interpreter in this module, using a flat 64 KiB memory image and a
minimal CP/M BDOS shim for console output and program exit.`,
}

// Execute runs the root command, exiting the process on error exactly
// as the generated cobra scaffold does.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
