package main

import (
	"fmt"
	"log"
	"slices"

	"github.com/spf13/cobra"

	"github.com/thushan/warden/internal/adapter/security"
	"github.com/thushan/warden/internal/version"
)

func newRootCommand() *cobra.Command {
	var opts serveOptions

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the guard, monitor and admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	root := &cobra.Command{
		Use:           version.Name,
		Short:         version.Description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve.RunE,
	}

	for _, cmd := range []*cobra.Command{root, serve} {
		cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "config file (default ./config.yaml or $WARDEN_CONFIG_FILE)")
		cmd.Flags().StringVar(&opts.pprofAddress, "pprof", "", "serve pprof endpoints on this address, e.g. localhost:6060")
	}

	root.AddCommand(serve, newVersionCommand(), newRulesCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version.PrintVersionInfo(true, log.New(cmd.OutOrStdout(), "", 0))
		},
	}
}

func newRulesCommand() *cobra.Command {
	rules := &cobra.Command{
		Use:   "rules",
		Short: "Work with threat signature files",
	}
	rules.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a signature file without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := security.LoadRuleSet(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: version %s\n", rs.Source, rs.Version)
			counts := rs.Counts()
			groups := make([]string, 0, len(counts))
			for group := range counts {
				groups = append(groups, group)
			}
			slices.Sort(groups)
			for _, group := range groups {
				fmt.Fprintf(out, "  %-12s %d\n", group, counts[group])
			}
			return nil
		},
	})
	return rules
}
