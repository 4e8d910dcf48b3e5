package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sanctions/internal/fetch"
)

func newSourcesCmd(a *app) *cobra.Command {
	cfg := a.cfg
	return &cobra.Command{
		Use:   "sources",
		Short: "List the sources extract knows by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := fetch.LoadCatalogue(cfg.Fetch.SourcesFile)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tOUT\tMIN BYTES\tURL")
			for _, s := range catalogue.All() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Name, s.Out, s.MinBytes, s.URL)
			}
			return tw.Flush()
		},
	}
}
