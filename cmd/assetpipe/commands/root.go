// Package commands implements the CLI commands for the assetpipe tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/assetpipe/internal/app"
	"go.trai.ch/assetpipe/internal/build"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for assetpipe.
type CLI struct {
	components *app.Components
	rootCmd    *cobra.Command
}

// New creates a new CLI instance over the given components.
func New(c *app.Components) *CLI {
	rootCmd := &cobra.Command{
		Use:           "assetpipe",
		Short:         "Load, resolve and stream assets",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML, TOML or JSON)")

	cli := &CLI{
		components: c,
		rootCmd:    rootCmd,
	}
	rootCmd.PersistentPreRunE = cli.applyConfig

	rootCmd.AddCommand(cli.newLoadCmd())
	rootCmd.AddCommand(cli.newResolveCmd())
	rootCmd.AddCommand(cli.newStreamCmd())
	rootCmd.AddCommand(cli.newServeCmd())
	rootCmd.AddCommand(cli.newVersionCmd())

	return cli
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// applyConfig loads the file named by --config over the startup configuration.
func (c *CLI) applyConfig(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil || path == "" {
		return err
	}
	cfg, err := c.components.ConfigLoader.Load(path)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	return c.components.Pipeline.Reconfigure(cfg)
}
