package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at release time; left as "dev" for source checkouts.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the zexall version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
