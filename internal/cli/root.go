// Package cli implements the mergecfg command.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/mergecfg/internal/config"
	"github.com/dshills/mergecfg/internal/logger"
)

// BuildInfo is the version information reported by "mergecfg version".
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// app holds the state shared by the commands of one invocation.
type app struct {
	settings Settings
	info     BuildInfo
	out      io.Writer
	errOut   io.Writer
}

// NewRootCommand builds the mergecfg command tree. settings supplies the
// flag defaults.
func NewRootCommand(settings Settings, info BuildInfo, out, errOut io.Writer) *cobra.Command {
	a := &app{
		settings: settings,
		info:     info,
		out:      out,
		errOut:   errOut,
	}

	root := &cobra.Command{
		Use:   "mergecfg",
		Short: "Merge configuration files and query the result",
		Long: `mergecfg loads YAML, JSON, INI and TOML files, merges them left to right
and prints values from the merged configuration.

Later sources override earlier ones. Mappings merge key by key; every other
value is replaced. Sources that cannot be read are skipped with a warning.

Examples:
  mergecfg -s defaults.yaml -s 'conf.d/*.json' get db.host
  mergecfg -s base.yaml -s local.ini dump --format json
  MERGECFG_SOURCES=a.yaml,b.yaml mergecfg keys 'db.*'
  generate-config | mergecfg -s base.yaml -s - --stdin-format json dump`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.Validate(); err != nil {
				return err
			}
			log, err := a.logger()
			if err != nil {
				return err
			}
			cmd.SetContext(log.WithContext(cmd.Context()))
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringArrayVarP(&a.settings.Sources, "source", "s", a.settings.Sources, "Configuration file or glob pattern (repeatable, merged in order)")
	flags.BoolVar(&a.settings.Require, "require", a.settings.Require, "Fail when no source could be loaded")
	flags.BoolVar(&a.settings.StrictSequences, "strict-sequences", a.settings.StrictSequences, "Reject merging a non-list value into a list")
	flags.StringVar(&a.settings.OverridePrefix, "env-prefix", a.settings.OverridePrefix, "Apply environment variables with this prefix as a final source")
	flags.StringToStringVar(&a.settings.EnvMapping, "env-map", a.settings.EnvMapping, "Map an environment variable to a path, e.g. DATABASE_URL=db.url (repeatable)")
	flags.StringVar(&a.settings.StdinFormat, "stdin-format", a.settings.StdinFormat, "Format of the '-' source read from standard input")
	flags.StringVar(&a.settings.LogLevel, "log-level", a.settings.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&a.settings.LogFormat, "log-format", a.settings.LogFormat, "Log format (console, json)")
	flags.StringVar(&a.settings.Color, "color", a.settings.Color, "Colorize JSON output (auto, always, never)")

	root.AddCommand(
		newGetCommand(a),
		newDumpCommand(a),
		newKeysCommand(a),
		newSourcesCommand(a),
		newVersionCommand(a),
	)

	return root
}

func (a *app) logger() (*logger.Logger, error) {
	level, err := logger.ParseLevel(a.settings.LogLevel)
	if err != nil {
		return nil, err
	}
	if a.settings.LogFormat == "json" {
		return logger.New("mergecfg", level, a.errOut), nil
	}
	return logger.NewConsole("mergecfg", level, a.errOut), nil
}

// load merges the configured sources, logging to the logger stored in the
// command context.
func (a *app) load(cmd *cobra.Command) (*config.Config, error) {
	ctx := cmd.Context()

	cfg, err := config.LoadSources(ctx, a.settings.Sources,
		config.WithLogger(logger.FromContext(ctx)),
		config.WithRequireSources(a.settings.Require),
		config.WithStrictSequences(a.settings.StrictSequences),
		config.WithEnvPrefix(a.settings.OverridePrefix),
		config.WithEnvMapping(a.settings.EnvMapping),
		config.WithStdin(cmd.InOrStdin(), a.settings.StdinFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func (a *app) color() bool {
	return useColor(a.settings.Color, a.out)
}
