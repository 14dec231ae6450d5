package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/spf13/cobra"
	"github.com/vito/tyck/pkg/ioctx"
	"github.com/vito/tyck/pkg/lsp"
	"github.com/vito/tyck/pkg/tyck"
)

func lspCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLSP(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.LSPLogFile, "log-file", "", "Path to LSP log file (stderr if not specified)")
	return cmd
}

func runLSP(ctx context.Context, cfg *Config) error {
	var logDest io.Writer
	if cfg.LSPLogFile != "" {
		logFile, err := os.Create(cfg.LSPLogFile)
		if err != nil {
			return fmt.Errorf("open lsp log: %w", err)
		}
		defer logFile.Close() //nolint:errcheck
		logDest = logFile
	} else {
		logDest = os.Stderr
	}

	logger := setupLogging(cfg.Debug, logDest)
	ctx = ioctx.LoggerToContext(ctx, logger)

	// explicit settings win; otherwise the workspace's tyck.toml is used
	var config *tyck.Config
	if cfg.EnvFile != "" || cfg.MaxDepth > 0 {
		loaded, err := loadConfig(cfg)
		if err != nil {
			return err
		}
		config = loaded
	}

	logger.InfoContext(ctx, "starting LSP server")

	handler := lsp.NewHandler(ctx, config, version)
	srv := jrpc2.NewServer(handler, &jrpc2.ServerOptions{
		AllowPush: true,
		Logger:    func(text string) { logger.Debug(text) },
	})

	// Store server reference in handler for callbacks
	handler.SetServer(srv)

	srv.Start(channel.LSP(stdrwc{}, stdrwc{}))

	logger.InfoContext(ctx, "LSP server closed", "error", srv.Wait())
	return nil
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
