package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is the prefix of the environment variables read into Settings.
const EnvPrefix = "MERGECFG_"

// Settings configures the mergecfg command. Values come from MERGECFG_*
// environment variables and are overridden by command-line flags.
type Settings struct {
	// Sources are the file paths or glob patterns to merge, in order.
	Sources []string `env:"SOURCES" envSeparator:","`

	// Require fails the load when no source could be read.
	Require bool `env:"REQUIRE" envDefault:"true"`

	// StrictSequences rejects merging a non-sequence into a sequence.
	StrictSequences bool `env:"STRICT_SEQUENCES"`

	// OverridePrefix adds environment variables with this prefix as the
	// last source. Empty disables it.
	OverridePrefix string `env:"ENV_PREFIX"`

	// EnvMapping maps environment variables to dotted paths in the
	// environment source, e.g. DATABASE_URL:db.url.
	EnvMapping map[string]string `env:"ENV_MAP"`

	// StdinFormat is the format of the "-" source read from standard input.
	StdinFormat string `env:"STDIN_FORMAT" envDefault:"yaml"`

	// LogLevel is the minimum level written to stderr.
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`

	// LogFormat is "console" or "json".
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Color is "auto", "always" or "never".
	Color string `env:"COLOR" envDefault:"auto"`
}

// LoadSettings reads Settings from environ. A nil environ means the
// process environment.
func LoadSettings(environ map[string]string) (Settings, error) {
	var s Settings
	err := env.ParseWithOptions(&s, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("error getting env settings: %w", err)
	}
	return s, nil
}

// Validate checks the enumerated settings.
func (s Settings) Validate() error {
	switch s.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (want console or json)", s.LogFormat)
	}
	switch s.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always or never)", s.Color)
	}
	return nil
}
