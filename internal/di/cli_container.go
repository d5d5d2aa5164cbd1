package di

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/config"
	"github.com/mikey/llm-mail-triage/internal/logging"
)

// ErrNoCommand is returned by ParseFlags when no subcommand was given
var ErrNoCommand = errors.New("no command given")

// CLIFlags contains the global command line flags of the CLI and the
// subcommand that follows them
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	Command string
	Args    []string

	fs *pflag.FlagSet
}

// configFlags maps flags to the configuration keys they override. A flag
// only takes effect when given on the command line.
var configFlags = map[string]string{
	"dry-run":        "dispatcher.dry_run",
	"provider":       "llm.provider",
	"transport":      "transport.type",
	"calendar":       "calendar.type",
	"threshold-days": "followup.threshold_days",
}

// ParseFlags parses the global flags in args. Parsing stops at the first
// non-flag argument, which is the subcommand.
func ParseFlags(args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}

	fs := pflag.NewFlagSet("triage-cli", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.Usage = func() {}
	flags.fs = fs

	fs.StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file")
	fs.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	fs.Bool("dry-run", true, "Compute replies without sending them or flagging follow-ups")
	fs.String("provider", "openai", "LLM provider (openai, gemini, bedrock, anthropic)")
	fs.String("transport", "stub", "Mail transport (stub, demo, smtp, gmail)")
	fs.String("calendar", "none", "Calendar (none, google)")
	fs.Int("threshold-days", 1, "Days before a quote is followed up")

	if err := fs.Parse(args); err != nil {
		return flags, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return flags, ErrNoCommand
	}
	flags.Command = rest[0]
	flags.Args = rest[1:]
	return flags, nil
}

// Usage prints the global flags
func (f *CLIFlags) Usage() string {
	if f == nil || f.fs == nil {
		return ""
	}
	return f.fs.FlagUsages()
}

// BuildCLIContainer creates and configures a dependency injection container
// for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		var (
			cfg *config.Config
			err error
		)
		if flags.ConfigFile != "" {
			cfg, err = config.NewFromFile(flags.ConfigFile)
		} else {
			cfg, err = config.New()
		}
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}

		if err := bindFlags(cfg.GetViper(), flags.fs); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}); err != nil {
		return nil, err
	}

	if err := provideServices(container); err != nil {
		return nil, err
	}
	return container, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	for name, key := range configFlags {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}
