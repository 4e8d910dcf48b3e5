package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sanctions/internal/config"
	"github.com/JonMunkholm/sanctions/internal/core"
)

func newTransformCmd(a *app) *cobra.Command {
	cfg := a.cfg
	var input, output, format string

	cmd := &cobra.Command{
		Use:         "transform",
		Short:       "Convert a CSV or XLSX list to JSON-lines entities",
		Args:        cobra.NoArgs,
		Annotations: uses(config.SectionTransform),
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := core.ParseShape(format)
			if err != nil {
				return err
			}
			res, err := core.Transform(core.TransformOptions{
				Input:  input,
				Output: output,
				Shape:  shape,
				Logger: a.logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entities to %s\n", res.Written, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", cfg.Transform.Input, "raw list ("+inputFormats()+")")
	cmd.Flags().StringVarP(&output, "output", "o", cfg.Transform.Output, "entity JSONL file")
	cmd.Flags().StringVarP(&format, "format", "f", cfg.Transform.Format, "entity encoding: simple or graph")
	return cmd
}
