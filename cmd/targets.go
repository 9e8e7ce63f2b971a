package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newTargetsCmd creates the 'targets' subcommand, which lists what a round crawls.
func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Lists the configured crawl targets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveSession(cmd.Context())
			if err != nil {
				return err
			}
			targets, err := rt.cfg.ResolveTargets()
			if err != nil {
				return fmt.Errorf("resolve targets: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ADAPTER\tCITY\tENCODING\tFETCH\tURL")
			for _, t := range targets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Adapter, t.City, t.Encoding, t.Fetch, t.URL(rt.cfg.Crawler.Scheme))
			}
			if err := tw.Flush(); err != nil {
				return fmt.Errorf("write targets: %w", err)
			}
			return nil
		},
	}
}
