package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sanctions/internal/config"
	"github.com/JonMunkholm/sanctions/internal/logging"
	"github.com/JonMunkholm/sanctions/internal/source"
)

// sectionsKey is the command annotation listing the config sections the
// command reads, comma-separated. Only those sections are checked before it
// runs.
const sectionsKey = "config-sections"

// app is shared by every command: the loaded config, and the logger built
// from the log flags once they are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func uses(sections ...string) map[string]string {
	return map[string]string{sectionsKey: strings.Join(sections, ",")}
}

// inputFormats names the readers compiled in, for flag help.
func inputFormats() string {
	return strings.Join(source.Formats(), " or ")
}

// newRootCmd builds the command tree. Flag defaults come from cfg.
func newRootCmd(cfg *config.Config) *cobra.Command {
	var logLevel, logFormat string
	a := &app{cfg: cfg, logger: slog.Default()}

	root := &cobra.Command{
		Use:   "sanctions",
		Short: "Sanctions pipeline CLI",
		Long: `Sanctions pipeline CLI.

Downloads published sanctions lists (extract), converts CSV or XLSX rows
into a JSON-lines entity file (transform), checks that file (validate) and
screens names against it from a file (screen) or over HTTP (serve).

Every flag default can be set through the environment or a .env file;
see "sanctions sources" for the lists extract knows by name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			sections := strings.Split(cmd.Annotations[sectionsKey], ",")
			if err := cfg.Check(append(sections, config.SectionLogging)...); err != nil {
				return err
			}
			a.logger = logging.Setup(logLevel, logFormat, cmd.ErrOrStderr())
			a.logger.Debug("configuration loaded", "command", cmd.Name(), "config", cfg.String())
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", cfg.Logging.Level, "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", cfg.Logging.Format, "log format: text or json")

	root.AddCommand(
		newExtractCmd(a),
		newTransformCmd(a),
		newScreenCmd(a),
		newValidateCmd(a),
		newServeCmd(a),
		newSourcesCmd(a),
	)
	return root
}
