package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/match"

	"github.com/dshills/mergecfg/internal/config/loader"
	"github.com/dshills/mergecfg/internal/config/value"
)

func newGetCommand(a *app) *cobra.Command {
	var (
		def    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value at a dotted path",
		Long: `Print the value at a dotted path such as db.host.

Scalars are printed as-is. Mappings and lists are printed as YAML unless
--format is given. A missing path is an error unless --default is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			defer cfg.Close()

			v, ok := cfg.Lookup(args[0])
			if !ok {
				if !cmd.Flags().Changed("default") {
					return &KeyNotFoundError{Path: args[0]}
				}
				v = def
			}

			if format == "" {
				return writeScalar(a.out, v)
			}
			return writeValue(a.out, v, format, a.color())
		},
	}

	cmd.Flags().StringVarP(&def, "default", "d", "", "Value to print when the path does not exist")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (yaml, json)")
	return cmd
}

func newDumpCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the whole merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			defer cfg.Close()

			return writeValue(a.out, cfg.Merged(), format, a.color())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatYAML, "Output format (yaml, json)")
	return cmd
}

func newKeysCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys [pattern]",
		Short: "List the dotted paths of all values",
		Long: `List the dotted paths of all leaf values, sorted.

An optional pattern filters the paths: '*' matches any run of characters
and '?' a single character, e.g. 'db.*'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			defer cfg.Close()

			if kind := value.KindOf(cfg.Snapshot().Merged); kind != value.Mapping {
				return fmt.Errorf("merged configuration is a %s and has no keys", kind)
			}

			for _, key := range cfg.Keys() {
				if len(args) == 1 && !match.Match(key, args[0]) {
					continue
				}
				fmt.Fprintln(a.out, key)
			}
			return nil
		},
	}
}

func newSourcesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the sources that were merged and the ones that were skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			defer cfg.Close()

			snap := cfg.Snapshot()
			for _, src := range snap.Sources {
				fmt.Fprintf(a.out, "loaded   %-6s %s\n", src.Format, src.Origin)
			}
			for _, failure := range snap.Failures {
				fmt.Fprintf(a.out, "skipped  %s\n", describeFailure(failure))
			}
			return nil
		},
	}
}

func describeFailure(err error) string {
	var unreadable *loader.UnreadableSourceError
	if !errors.As(err, &unreadable) {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %s", unreadable.Reason, unreadable.Path)
	if unreadable.Err != nil {
		fmt.Fprintf(&b, ": %v", unreadable.Err)
	}
	return b.String()
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "mergecfg %s\n", a.info.Version)
			fmt.Fprintf(a.out, "Commit: %s\n", a.info.Commit)
			fmt.Fprintf(a.out, "Built: %s\n", a.info.Date)
			return nil
		},
	}
}
