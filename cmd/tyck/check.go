package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vito/tyck/pkg/hm"
	"github.com/vito/tyck/pkg/ioctx"
	"github.com/vito/tyck/pkg/tyck"
)

func checkCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] file...",
		Short: "Type check source files",
		Long: `Type check each file and print its type. Files are checked
concurrently; the first type error in each file is reported with its source
location. Exits non-zero if any file fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), cfg, args)
		},
	}

	cmd.Flags().BoolVar(&cfg.Types, "types", false, "Print the type of every sub-term")
	cmd.Flags().BoolVar(&cfg.JSON, "json", false, "Print one JSON object per file")
	cmd.Flags().BoolVar(&cfg.NoColor, "no-color", false, "Render errors without terminal styling")
	cmd.Flags().IntVarP(&cfg.Jobs, "jobs", "j", 0, "Files to check at once (default one per CPU)")

	return cmd
}

// checkReport is the --json form of a result.
type checkReport struct {
	File   string       `json:"file"`
	Type   string       `json:"type,omitempty"`
	Error  string       `json:"error,omitempty"`
	Code   string       `json:"code,omitempty"`
	Line   int          `json:"line,omitempty"`
	Column int          `json:"column,omitempty"`
	Terms  []termReport `json:"terms,omitempty"`
}

type termReport struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Term   string `json:"term"`
	Type   string `json:"type"`
}

func runCheck(ctx context.Context, cfg *Config, paths []string) error {
	config, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	env, err := config.Env()
	if err != nil {
		return err
	}
	ctx = config.Context(ctx)

	results, err := tyck.CheckFiles(ctx, paths, tyck.Options{
		Env:         env,
		Jobs:        config.Check.Jobs,
		RecordTypes: cfg.Types,
	})
	if err != nil {
		return err
	}

	stdout := ioctx.StdoutFromContext(ctx)
	stderr := ioctx.StderrFromContext(ctx)
	enc := json.NewEncoder(stdout)

	failed := 0
	for _, res := range results {
		checkedFiles.Add(1)
		if res.Err != nil {
			failed++
			failedFiles.Add(1)
		}

		if cfg.JSON {
			if err := enc.Encode(report(res, cfg.Types)); err != nil {
				return err
			}
			continue
		}

		if res.Err != nil {
			fmt.Fprint(stderr, render(cfg, res.Err))
			if !endsInNewline(res.Err) {
				fmt.Fprintln(stderr)
			}
			continue
		}

		fmt.Fprintf(stdout, "%s: %s\n", res.File, res.Type)
		if cfg.Types {
			printTypes(stdout, res)
		}
	}

	if failed > 0 {
		if !cfg.JSON {
			fmt.Fprintf(stderr, "%d of %d files failed type checking\n", failed, len(results))
		}
		return errChecksFailed
	}
	return nil
}

func endsInNewline(err error) bool {
	msg := err.Error()
	return len(msg) > 0 && msg[len(msg)-1] == '\n'
}

func report(res tyck.Result, withTypes bool) checkReport {
	rep := checkReport{File: res.File}
	if res.Err != nil {
		var sourceErr *tyck.SourceError
		if errors.As(res.Err, &sourceErr) {
			rep.Error = tyck.Plain(sourceErr.Inner)
			rep.Line = sourceErr.Location.Line
			rep.Column = sourceErr.Location.Column
		} else {
			rep.Error = tyck.Plain(res.Err)
		}
		var parseErr *tyck.ParseError
		if kind, ok := tyck.KindOf(res.Err); ok {
			rep.Code = kind.Code()
		} else if errors.As(res.Err, &parseErr) {
			rep.Code = "parse_error"
		}
		return rep
	}

	rep.Type = res.Type.String()
	if withTypes {
		for _, tt := range typedTerms(res) {
			loc := tt.term.GetSourceLocation()
			rep.Terms = append(rep.Terms, termReport{
				Line:   loc.Line,
				Column: loc.Column,
				Term:   describe(tt.term),
				Type:   tt.t.String(),
			})
		}
	}
	return rep
}

type typedTerm struct {
	term tyck.Term
	t    hm.Type
}

// typedTerms lists recorded sub-terms in source order, outermost first.
func typedTerms(res tyck.Result) []typedTerm {
	var terms []typedTerm
	res.Term.Walk(func(term tyck.Term) bool {
		if t := res.Info.TypeOf(term); t != nil && term.GetSourceLocation() != nil {
			terms = append(terms, typedTerm{term, t})
		}
		return true
	})
	slices.SortStableFunc(terms, func(a, b typedTerm) int {
		la, lb := a.term.GetSourceLocation(), b.term.GetSourceLocation()
		return cmp.Or(cmp.Compare(la.Line, lb.Line), cmp.Compare(la.Column, lb.Column))
	})
	return terms
}

func printTypes(w io.Writer, res tyck.Result) {
	for _, tt := range typedTerms(res) {
		loc := tt.term.GetSourceLocation()
		fmt.Fprintf(w, "  %d:%d\t%s\t%s\n", loc.Line, loc.Column, describe(tt.term), tt.t)
	}
}

// describe names a term briefly for --types output.
func describe(term tyck.Term) string {
	switch t := term.(type) {
	case *tyck.BoolLit:
		return strconv.FormatBool(t.Value)
	case *tyck.NumLit:
		return strconv.FormatFloat(t.Value, 'g', -1, 64)
	case *tyck.Symbol:
		return t.Name
	case *tyck.Select:
		return "." + t.Field
	case *tyck.Let:
		return "const " + t.Name
	case *tyck.FunDecl:
		return "function " + t.Name
	case *tyck.Lambda:
		return "lambda"
	case *tyck.FunCall:
		return "call"
	case *tyck.Addition:
		return "+"
	case *tyck.Conditional:
		return "?:"
	case *tyck.ObjectLit:
		return "object"
	case *tyck.Sequence:
		return ";"
	default:
		return fmt.Sprintf("%T", term)
	}
}
