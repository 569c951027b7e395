// main.go
// Fire-safety maintenance operations API: clients, preventive visits,
// corrective tasks, calendar, dashboard and reminders.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fireops/config"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fireops",
		Short:         "Maintenance operations backend for fire-safety service contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.AddCommand(newServeCmd(a), newSeedCmd(a))
	return root
}

func (a *app) init() error {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return err
	}
	a.cfg = cfg
	a.log = newLogger(cfg.Logging)
	if envErr != nil {
		a.log.Debug().Msg("no .env file found, using system environment variables")
	}

	if err := cfg.Validate(); err != nil {
		a.log.Error().Err(err).Msg("invalid configuration")
		return err
	}
	return nil
}

// newLogger builds the root logger: JSON lines by default, a console writer
// when LOG_FORMAT=console.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if strings.EqualFold(cfg.Format, "console") {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "fireops").Logger()
}
