package compiler

import (
	"context"
	"errors"
	"runtime"

	"bennypowers.dev/scssc/internal/cache"
	"bennypowers.dev/scssc/internal/log"
	"golang.org/x/sync/errgroup"
)

// CompileAll compiles independent entry stylesheets in parallel. Each
// compile has its own module graph and scopes; file reads are shared
// through opts.Cache, which is created for the batch when nil.
//
// The result slice is aligned with paths and holds nil for entries that
// failed. The error joins a *FileError for every failed entry, or is the
// context's error when ctx is canceled.
func CompileAll(ctx context.Context, paths []string, opts Options) ([]*Result, error) {
	if opts.Cache == nil {
		c, err := cache.New(opts.Loader, cache.DefaultSize)
		if err != nil {
			return nil, err
		}
		opts.Cache = c
	}

	results := make([]*Result, len(paths))
	failures := make([]error, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Compile(path, opts)
			if err != nil {
				failures[i] = &FileError{Path: path, Err: err}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	log.Debug("Compiled %d entries, %d files read", len(paths), opts.Cache.Len())
	return results, errors.Join(failures...)
}

// FileErrors unpacks the per-entry failures of a CompileAll error
func FileErrors(err error) []*FileError {
	var out []*FileError
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if fe, ok := err.(*FileError); ok {
			out = append(out, fe)
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
		}
	}
	walk(err)
	return out
}
