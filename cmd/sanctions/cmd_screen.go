package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sanctions/internal/config"
	"github.com/JonMunkholm/sanctions/internal/core"
)

func newScreenCmd(a *app) *cobra.Command {
	cfg := a.cfg
	var input, entities, output string

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Match the name column of a file against an entity list",
		Long: `Match the "name" column of every row of --input against the entity file
and write the rows, in order, to --output with match_name and match_schema
appended. The first entity in file order whose name contains the query,
ignoring case, is the match.`,
		Args:        cobra.NoArgs,
		Annotations: uses(config.SectionScreen),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := core.Screen(core.ScreenOptions{
				Input:    input,
				Entities: entities,
				Output:   output,
				Logger:   a.logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Screened %d rows (%d matched) to %s\n", res.Rows, res.Matched, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", cfg.Screen.Input, "rows to screen ("+inputFormats()+")")
	cmd.Flags().StringVarP(&entities, "entities", "e", cfg.Screen.Entities, "entity JSONL file")
	cmd.Flags().StringVarP(&output, "output", "o", cfg.Screen.Output, "annotated CSV")
	return cmd
}
