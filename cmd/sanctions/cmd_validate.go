package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sanctions/internal/config"
	"github.com/JonMunkholm/sanctions/internal/core"
)

func newValidateCmd(a *app) *cobra.Command {
	cfg := a.cfg
	var minRows int

	cmd := &cobra.Command{
		Use:         "validate [path]",
		Short:       "Check an entity file is valid JSON lines with enough records",
		Args:        cobra.MaximumNArgs(1),
		Annotations: uses(config.SectionValidate),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.Transform.Output
			if len(args) == 1 {
				path = args[0]
			}
			report, err := core.ValidateJSONL(path, minRows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d records in %s\n", report.Total, report.Path)
			return nil
		},
	}

	cmd.Flags().IntVar(&minRows, "min-rows", cfg.Validate.MinRows, "minimum number of valid records")
	return cmd
}
