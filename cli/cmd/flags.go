// Package cmd provides CLI commands for the keyspace binary.
package cmd

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/cli/config"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for inspect run and bench.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect run, bench only)",
	}

	// ConfigFlag points at a keyspace.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file (default ./" + config.DefaultPath + " when present)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// StrategyFlags returns the candidate strategy flags shared by bench and
// plan. Set flags override the config file's strategy section.
func StrategyFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		&cli.StringFlag{Name: "kind", Usage: "Strategy kind: alphabet or wordlist"},
		&cli.StringFlag{Name: "alphabet", Usage: "Literal alphabet symbols"},
		&cli.StringFlag{Name: "charset", Usage: "Named charsets joined by + (lower, upper, digits, hex, alpha, alnum, symbols)"},
		&cli.IntFlag{Name: "length", Usage: "Candidate length (alphabet)"},
		&cli.StringFlag{Name: "wordlist", Usage: "Path to a wordlist file, one candidate per line"},
		&cli.StringSliceFlag{Name: "word", Usage: "Inline candidate (repeatable)"},
		&cli.StringSliceFlag{Name: "priority", Usage: "Candidate probed before the bulk sequence (repeatable)"},
		&cli.StringSliceFlag{Name: "skip", Usage: "Candidate never probed (repeatable)"},
		&cli.Int64Flag{Name: "offset", Usage: "Bulk ordinal to start from"},
	}
}

// loadConfig loads --config, or ./keyspace.yaml when present, or returns
// an empty config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.Load(config.DefaultPath)
	}
	return &config.Config{}, nil
}

// strategyFromFlags overlays set strategy flags on base.
func strategyFromFlags(c *cli.Context, base candidate.Strategy) candidate.Strategy {
	s := base
	if c.IsSet("kind") {
		s.Kind = c.String("kind")
	}
	if c.IsSet("alphabet") {
		s.Alphabet = c.String("alphabet")
	}
	if c.IsSet("charset") {
		s.Charset = c.String("charset")
	}
	if c.IsSet("length") {
		s.Length = c.Int("length")
	}
	if c.IsSet("wordlist") {
		s.WordlistPath = c.String("wordlist")
	}
	if c.IsSet("word") {
		s.Words = c.StringSlice("word")
	}
	if c.IsSet("priority") {
		s.Priority = c.StringSlice("priority")
	}
	if c.IsSet("skip") {
		s.Skip = c.StringSlice("skip")
	}
	if c.IsSet("offset") {
		s.Offset = c.Int64("offset")
	}
	return s
}

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
