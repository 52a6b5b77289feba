// Package config parses the command line and environment into an AppConfig.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/rosterfan/internal/errors"
	"github.com/agbru/rosterfan/internal/orchestration"
)

// EnvPrefix prefixes every environment variable read by the application.
const EnvPrefix = "ROSTERFAN_"

// Run modes.
const (
	ModeParallel     = "parallel"
	ModeSynchronized = "synchronized"
	ModeBoth         = "both"
	ModeServe        = "serve"
)

// Default values for configurable settings.
const (
	DefaultMode      = ModeBoth
	DefaultTimeout   = 1 * time.Minute
	DefaultAddr      = ":8080"
	DefaultLogFormat = "auto"
)

// LogFormatText selects plain standard-library log lines.
const LogFormatText = "text"

// AppConfig holds the resolved application settings.
type AppConfig struct {
	Mode        string
	RosterFile  string
	Workers     int
	SegmentSize int
	ChunkSize   int
	JoinTimeout time.Duration
	Timeout     time.Duration
	Addr        string
	LogFormat   string
	Verbose     bool
	Quiet       bool
	Strict      bool
}

// Topology returns the worker layout described by the configuration.
func (c AppConfig) Topology() orchestration.Topology {
	return orchestration.Topology{Workers: c.Workers, SegmentSize: c.SegmentSize}
}

// Validate checks the configuration for consistency.
func (c AppConfig) Validate() error {
	switch c.Mode {
	case ModeParallel, ModeSynchronized, ModeBoth, ModeServe:
	default:
		return apperrors.NewConfigError("invalid mode %q (want %s)", c.Mode,
			strings.Join([]string{ModeParallel, ModeSynchronized, ModeBoth, ModeServe}, ", "))
	}
	if err := c.Topology().Validate(); err != nil {
		return err
	}
	if c.ChunkSize < 0 {
		return apperrors.NewConfigError("chunk size must not be negative, got %d", c.ChunkSize)
	}
	if c.JoinTimeout < 0 {
		return apperrors.NewConfigError("join timeout must not be negative, got %s", c.JoinTimeout)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout must be positive, got %s", c.Timeout)
	}
	switch strings.ToLower(c.LogFormat) {
	case "auto", "json", "console", LogFormatText:
	default:
		return apperrors.NewConfigError("invalid log format %q (want auto, json, console, text)", c.LogFormat)
	}
	if c.Mode == ModeServe && c.Addr == "" {
		return apperrors.NewConfigError("serve mode needs a listen address")
	}
	return nil
}

// ParseConfig parses command-line arguments, applies environment overrides for
// flags not set explicitly and validates the result.
// Priority: CLI flags > environment variables > defaults.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	config := AppConfig{}
	fs.StringVar(&config.Mode, "mode", DefaultMode, "What to run: parallel, synchronized, both, or serve.")
	fs.StringVar(&config.RosterFile, "roster", "", "YAML or JSON roster file (default: built-in demo roster).")
	fs.IntVar(&config.Workers, "workers", orchestration.DefaultWorkers, "Number of forked workers.")
	fs.IntVar(&config.SegmentSize, "segment-size", orchestration.DefaultSegmentSize, "Records per segment.")
	fs.IntVar(&config.ChunkSize, "chunk-size", 0, "Bytes per write when emitting a name (0 = whole name).")
	fs.DurationVar(&config.JoinTimeout, "join-timeout", 0, "Upper bound on one report's join (0 = wait indefinitely).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum run time in CLI modes.")
	fs.StringVar(&config.Addr, "addr", DefaultAddr, "Listen address in serve mode.")
	fs.StringVar(&config.LogFormat, "log-format", DefaultLogFormat, "Log format: auto, json, console, or text.")
	fs.BoolVar(&config.Verbose, "v", false, "Verbose logging (debug level).")
	fs.BoolVar(&config.Verbose, "verbose", false, "Verbose logging (debug level).")
	fs.BoolVar(&config.Quiet, "q", false, "Only log errors.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Only log errors.")
	fs.BoolVar(&config.Strict, "strict", false, "Exit non-zero when the roster is too small.")

	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [flags]\n\n", programName)
		fmt.Fprintf(errWriter, "Emits roster names through concurrent workers.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	applyEnvOverrides(&config, fs)
	config.Mode = strings.ToLower(config.Mode)

	if err := config.Validate(); err != nil {
		fmt.Fprintln(errWriter, err)
		return AppConfig{}, err
	}
	return config, nil
}
