package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"macrocli/internal/config"
	"macrocli/internal/infrastructure"
)

// subcommandFns builds every subcommand of the root command
var subcommandFns = map[string]func(c *CLI) *cobra.Command{}

// CLI holds the global flags and the runtime shared by subcommands
type CLI struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	baseDir    string

	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Providers *infrastructure.OTelProviders
}

// NewRootCommand creates the macrocli command with every subcommand attached
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	c := &CLI{stdout: stdout, stderr: stderr}

	rc := &cobra.Command{
		Use:   config.AppName,
		Short: "macrocli - monthly macroeconomic dataset pipeline",
		Long: `Cleans raw CPI, energy, labor and news inputs into monthly tables,
merges them into final_dataset.csv and analyses the result.

Configuration is read from macrocli.yaml (or --config), .env and
MACRO_* environment variables, in increasing order of precedence.

Version: ` + config.AppVersion + "\n",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rc.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&c.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	flags.StringVar(&c.baseDir, "base-dir", "", "override pipeline.base_dir")

	for _, subcomFn := range subcommandFns {
		rc.AddCommand(subcomFn(c))
	}
	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setup loads the configuration, applies flag overrides and initializes
// logging and telemetry. Callers must defer teardown.
func (c *CLI) setup(ctx context.Context) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(c.logLevel)
	}
	if c.baseDir != "" {
		cfg.Pipeline.BaseDir = c.baseDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	paths, err := config.GetPaths(cfg.Pipeline)
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}

	var logger *slog.Logger
	if cfg.Logging.Output == "console" {
		logger = infrastructure.NewLogger(cfg.Logging, c.stderr)
	} else if logger, err = infrastructure.InitializeLogger(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	c.Config, c.Paths, c.Logger, c.Providers = cfg, paths, logger, providers
	logger.DebugContext(ctx, "cli_initialized",
		slog.String("version", config.AppVersion),
		slog.String("config", c.configPath),
		slog.String("base_dir", paths.BaseDir))
	return nil
}

// teardown flushes telemetry and closes the log file
func (c *CLI) teardown(ctx context.Context) error {
	var errs []error
	if c.Providers != nil {
		if err := c.Providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown telemetry: %w", err))
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
	}
	return errors.Join(errs...)
}

// withRuntime wraps a RunE so that it runs between setup and teardown
func (c *CLI) withRuntime(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := c.setup(ctx); err != nil {
			return err
		}
		defer func() {
			if tErr := c.teardown(ctx); tErr != nil && err == nil {
				err = tErr
			}
		}()
		return run(cmd, args)
	}
}
