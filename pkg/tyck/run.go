package tyck

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/vito/tyck/pkg/hm"
	"golang.org/x/sync/errgroup"
)

// Options controls file checking.
type Options struct {
	// Env is the initial type environment.
	Env *hm.Env

	// Jobs limits concurrent files; zero means one per CPU.
	Jobs int

	// RecordTypes fills Result.Info with the type of every sub-term.
	RecordTypes bool
}

// Result is the outcome of checking one file.
type Result struct {
	File string
	Term Term
	Type hm.Type
	Info *Info

	// Err is a read, parse or type error. Located errors carry source
	// context for rendering.
	Err error
}

// CheckSource parses and checks src.
func CheckSource(ctx context.Context, filename string, src []byte, opts Options) Result {
	res := Result{File: filename}

	term, err := Parse(filename, src)
	if err != nil {
		res.Err = WithSource(err, string(src))
		return res
	}
	res.Term = term

	if opts.RecordTypes {
		res.Type, res.Info, err = CheckInfo(ctx, opts.Env, term)
	} else {
		res.Type, err = Check(ctx, opts.Env, term)
	}
	if err != nil {
		res.Type = nil
		res.Err = WithSource(err, string(src))
	}
	return res
}

// CheckFile reads and checks one file.
func CheckFile(ctx context.Context, path string, opts Options) Result {
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{File: path, Err: errors.Wrap(err, "read")}
	}
	res := CheckSource(ctx, path, src, opts)
	if res.Err != nil {
		slog.DebugContext(ctx, "check failed", "path", path, "error", Plain(res.Err))
	} else {
		slog.DebugContext(ctx, "checked", "path", path, "type", res.Type)
	}
	return res
}

// CheckFiles checks every path concurrently. Results are in input order; the
// returned error is only set when ctx is cancelled.
func CheckFiles(ctx context.Context, paths []string, opts Options) ([]Result, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = CheckFile(ctx, path, opts)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "checked files", "count", len(paths), "jobs", jobs)
	return results, nil
}
