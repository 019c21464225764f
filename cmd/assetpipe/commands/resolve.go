package commands

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/assetpipe/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [assets...]",
		Short: "Print the load order of manifest assets",
		Long:  "Print the load order and parallel levels of the given assets, or of every asset in the manifest.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, _ := cmd.Flags().GetString("manifest")
			return c.runResolve(cmd, manifest, args)
		},
	}
	cmd.Flags().StringP("manifest", "m", "assets.yaml", "Path to the asset manifest")
	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, path string, names []string) error {
	m, err := c.components.ConfigLoader.LoadManifest(path)
	if err != nil {
		return zerr.Wrap(err, "failed to load manifest")
	}
	if err := c.components.Pipeline.RegisterManifest(m); err != nil {
		return err
	}
	if len(names) == 0 {
		names = slices.Sorted(maps.Keys(m.Assets))
	}
	if len(names) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	res := c.components.Pipeline.Resolve(domain.Identities(names...)...)

	out := cmd.OutOrStdout()
	for i, level := range res.Levels {
		_, _ = fmt.Fprintf(out, "level %d: %s\n", i, strings.Join(domain.Strings(level), ", "))
	}
	if res.HasCycles() {
		_, _ = fmt.Fprintf(out, "cycles: %s\n", strings.Join(domain.Strings(res.CycleMembers()), ", "))
	}
	if missing := res.MissingIDs(); len(missing) > 0 {
		err := zerr.Wrap(domain.ErrNodeNotFound, "unknown assets requested")
		return zerr.With(err, "missing", strings.Join(domain.Strings(missing), ", "))
	}
	return nil
}
