// Package cmd provides the CLI commands for nfctrace using Cobra.
package cmd

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nfclab/nfctrace/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	logger zerolog.Logger

	cfg        config.Config
	cfgPath    string
	verboseLog bool
)

var rootCmd = &cobra.Command{
	Use:   "nfctrace",
	Short: "NFC air traffic analyzer for ISO 14443 and ISO 15693 captures",
	Long: `Nfctrace decodes captured NFC air traffic into protocol events:

  - NFC-A/B/F/V frame classification (REQA, ATQA, RATS, Inventory, ...)
  - ISO-DEP block decoding (I-Block, R(ACK), R(NACK), S-Blocks)
  - Display filters over classified frames
  - SQLite session indexes for large traces

Examples:
  nfctrace read session.pcap                      # Print decoded frames
  nfctrace read json session.pcap -c 10           # First 10 frames as JSON
  nfctrace read session.pcap -Y 'event == "REQA"' # Filtered output
  nfctrace stats session.pcap                     # Session summary
  nfctrace index session.pcap                     # Build session index`,
	Version:           Version,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup initializes logging and loads the optional config file before
// any subcommand runs. Explicit flags win over file values.
func setup(cmd *cobra.Command, args []string) error {
	level := zerolog.WarnLevel
	if verboseLog {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	changed := make(map[string]bool)
	markChanged := func(f *pflag.Flag) { changed[f.Name] = true }
	cmd.Flags().Visit(markChanged)
	cmd.InheritedFlags().Visit(markChanged)

	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
		if !config.FileExists(path) {
			return cfg.Validate()
		}
	}

	if err := config.Load(path, &cfg, changed); err != nil {
		return err
	}
	logger.Debug().Str("path", path).Msg("loaded config file")

	return cfg.Validate()
}

func init() {
	cfg = config.Default()

	rootCmd.AddGroup(
		&cobra.Group{ID: "input", Title: "Input Commands:"},
		&cobra.Group{ID: "analysis", Title: "Analysis Commands:"},
	)

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default ~/.nfctrace/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseLog, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(indexCmd)
}
