package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/vito/tyck/pkg/ioctx"
	"github.com/vito/tyck/pkg/tyck"
)

const version = "v0.1.0"

// Config holds the command line configuration
type Config struct {
	Debug     bool
	DebugAddr string

	// EnvFile is a YAML or TOML file whose globals and settings overlay the
	// project's tyck.toml.
	EnvFile string

	MaxDepth int
	Jobs     int

	Types   bool
	JSON    bool
	NoColor bool

	LSPLogFile string
}

// errChecksFailed is returned once failures have already been reported.
var errChecksFailed = errors.New("type checking failed")

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "tyck",
		Short: "Static type checker for a small typed expression language",
		Long: `tyck checks programs written in a small TypeScript-like language of
booleans, numbers, functions and objects, and reports the first type error
in each file.`,
		Example: `  # Check some files
  tyck check main.ts lib.ts

  # Print the type of every sub-term
  tyck check --types main.ts

  # Start an interactive session
  tyck repl

  # Run with debug logging enabled
  tyck --debug check main.ts`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg.Debug, os.Stderr)
			if cfg.DebugAddr != "" {
				return setupDebugHandlers(cfg.DebugAddr)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfg.DebugAddr, "debug-addr", "", "Serve pprof and expvar handlers on this address")
	rootCmd.PersistentFlags().StringVar(&cfg.EnvFile, "env", "", "Load globals and settings from a .yaml or .toml file")
	rootCmd.PersistentFlags().IntVar(&cfg.MaxDepth, "max-depth", 0, "Maximum term nesting depth (default 10000)")

	rootCmd.AddCommand(
		checkCmd(&cfg),
		dumpCmd(&cfg),
		replCmd(&cfg),
		lspCmd(&cfg),
	)

	ctx := context.Background()
	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	ctx = ioctx.StderrToContext(ctx, os.Stderr)
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion(version),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			if errors.Is(err, errChecksFailed) {
				return
			}
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func setupLogging(debug bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig layers the project's tyck.toml, the --env file, the TYCK_*
// environment variables and finally command line flags.
func loadConfig(cfg *Config) (*tyck.Config, error) {
	config := &tyck.Config{}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	_, project, err := tyck.FindConfig(cwd)
	if err != nil {
		return nil, err
	}
	config.Merge(project)

	if cfg.EnvFile != "" {
		envConfig, err := tyck.LoadConfig(cfg.EnvFile)
		if err != nil {
			return nil, err
		}
		config.Merge(envConfig)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}

	if cfg.MaxDepth > 0 {
		config.Check.MaxDepth = cfg.MaxDepth
	}
	if cfg.Jobs > 0 {
		config.Check.Jobs = cfg.Jobs
	}
	return config, nil
}

// render formats an error for the terminal.
func render(cfg *Config, err error) string {
	if cfg.NoColor {
		return tyck.Plain(err)
	}
	return err.Error()
}
