package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doInfinitely/selective-speaker/cmd/selective-speaker/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(build.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
