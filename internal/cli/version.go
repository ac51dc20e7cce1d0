package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"macrocli/internal/config"
)

// NewVersionCommand prints build information
func NewVersionCommand(c *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.stdout, "%s %s (%s %s/%s)\n",
				config.AppName, config.AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}

func init() {
	subcommandFns["version"] = NewVersionCommand
}
