package cli

import (
	"github.com/spf13/cobra"

	"macrocli/internal/app"
)

// NewServeCommand starts the read-only HTTP API
func NewServeCommand(c *CLI) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the processed datasets and analysis over HTTP",
		Long: `Serves /api/health, /api/datasets, /api/analysis and /metrics until
interrupted. Requests never trigger a pipeline run.`,
		Args: cobra.NoArgs,
		RunE: c.withRuntime(func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				c.Config.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				c.Config.Server.Port = port
			}

			application, err := app.NewApplication(c.Config, c.Logger, c.Providers)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		}),
	}
	cmd.Flags().StringVar(&host, "host", "", "override server.host")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

func init() {
	subcommandFns["serve"] = NewServeCommand
}
