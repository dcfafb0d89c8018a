package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EtayOfir/bistro/cmd/gen"
	"github.com/EtayOfir/bistro/internal/meta"
)

var rootCmd = &cobra.Command{
	Use:   "bistro",
	Short: "Bistro reservation desk client",
	Long: `Bistro reservation desk client

A terminal client for the Bistro restaurant reservation and waiting-list
service. It holds one persistent connection to the server and keeps the
open screen in sync with pushed list updates.
`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := meta.GetInfo()
		fmt.Printf("bistro %s (%s, %s, built %s, %s)\n",
			info.Version, info.Build, info.Branch, info.BuildTime, info.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(StartCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
