// Package config loads configuration from an ordered list of files and
// merges them into one tree.
//
// Each pattern is expanded as a glob, each resulting file is parsed by the
// loader registered for its extension, and the parsed documents are merged
// left to right: later files override earlier ones.
//
// # Merge Rules
//
// Mappings merge key by key. Any other base value is replaced by the
// incoming value, with one exception kept for compatibility: a non-sequence
// merged into a sequence is appended to it. WithStrictSequences turns that
// case into an error. A mapping overridden by a non-mapping is always a
// *layer.MergeTypeError naming the key path and both values.
//
// # Unreadable Sources
//
// A file that is missing, has an unknown extension, or fails to parse is
// skipped. The load still succeeds with the remaining files. Skipped files
// are logged at warn level and listed by Failures, so a typo in a pattern
// list does not go unnoticed. WithRequireSources makes a load with no
// usable file fail with *NoSourcesResolvedError.
//
// # Other Sources
//
// WithEnvPrefix and WithEnvMapping add the environment as a final source.
// WithStdin makes the pattern "-" read a stream, such as standard input.
//
// # Basic Usage
//
//	cfg, err := config.LoadSources(ctx, []string{
//	    "defaults.yaml",
//	    "conf.d/*.json",
//	    "local.ini",
//	})
//	if err != nil {
//	    return err
//	}
//	defer cfg.Close()
//
//	host := cfg.GetString("db.host", "localhost")
//	port := cfg.GetInt("db.port", 5432)
//
// # Reloading
//
// Reload runs the same pipeline again and swaps in the new tree in a single
// step. Readers never block and never see a partially merged tree. If the
// reload fails the previous tree stays in place.
//
//	cfg.SubscribePath("db", func(c notify.Change) {
//	    log.Printf("%s %s", c.Type, c.Path)
//	})
//	if err := cfg.Reload(ctx); err != nil {
//	    return err
//	}
//
// # Sub-packages
//
//   - value: the canonical value model and normalization
//   - layer: merging, path lookup and snapshots
//   - loader: per-format loaders, the extension registry and glob expansion
//   - notify: change notification
package config
