package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/vito/tyck/pkg/ioctx"
	"github.com/vito/tyck/pkg/tyck"
)

const (
	historyFile = ".tyck_history"
	promptMain  = "tyck> "
	promptCont  = "  ... "
)

func replCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Check declarations and expressions interactively",
		Long: `Start an interactive session. Each input is checked against the
declarations entered so far and its type is printed.

Commands:
  :env    list the bindings in scope
  :reset  forget everything declared in this session
  :quit   exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&cfg.NoColor, "no-color", false, "Render errors without terminal styling")
	return cmd
}

type repl struct {
	cfg    *Config
	config *tyck.Config
	sess   *tyck.Session
	out    io.Writer
	errs   io.Writer
}

func newREPL(ctx context.Context, cfg *Config) (*repl, error) {
	config, err := loadConfig(cfg)
	if err != nil {
		return nil, err
	}
	env, err := config.Env()
	if err != nil {
		return nil, err
	}
	return &repl{
		cfg:    cfg,
		config: config,
		sess:   tyck.NewSession(env),
		out:    ioctx.StdoutFromContext(ctx),
		errs:   ioctx.StderrFromContext(ctx),
	}, nil
}

func runREPL(ctx context.Context, cfg *Config) error {
	r, err := newREPL(ctx, cfg)
	if err != nil {
		return err
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		input, ok := readInput(ln)
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
		if r.handle(ctx, input) {
			return nil
		}
	}
}

// readInput prompts until the input parses or fails for a reason other than
// ending early.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) && b.Len() > 0 {
			// ctrl-c abandons a partial input
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := tyck.ParseStatements("", []byte(src)); tyck.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}

// handle evaluates one input and reports whether the session should end.
func (r *repl) handle(ctx context.Context, input string) bool {
	replInputs.Add(1)

	switch cmd := strings.TrimSpace(input); {
	case cmd == ":quit" || cmd == ":q":
		return true
	case cmd == ":reset":
		r.sess.Reset()
		fmt.Fprintln(r.out, "environment reset")
		return false
	case cmd == ":env":
		for _, b := range r.sess.Env().Bindings() {
			fmt.Fprintf(r.out, "%s: %s\n", b.Name, b.Type)
		}
		return false
	case strings.HasPrefix(cmd, ":"):
		fmt.Fprintf(r.errs, "unknown command %s; try :env, :reset or :quit\n", cmd)
		return false
	}

	t, err := r.sess.Eval(r.config.Context(ctx), input)
	if err != nil {
		msg := render(r.cfg, err)
		fmt.Fprint(r.errs, msg)
		if !strings.HasSuffix(msg, "\n") {
			fmt.Fprintln(r.errs)
		}
		return false
	}
	if t != nil {
		fmt.Fprintln(r.out, t)
	}
	return false
}
