// Package typegen drives TypeScript generation for a schema graph: it plans
// one output file per schema file, emits the files in parallel, adds the
// namespace index files and the reflection metadata, and writes the result
// atomically.
package typegen

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/pbts/errors"
	"github.com/teranos/pbts/logger"
	"github.com/teranos/pbts/schema"
	"github.com/teranos/pbts/typegen/typescript"
)

type writeStatus uint8

const (
	writeSkipped writeStatus = iota
	writeChanged
	writeUnchanged
)

type emitted struct {
	content []byte
	err     error
}

// Emit renders every planned file without touching disk.
//
// A file that fails is left out of the result and named in Result.Failed;
// the other files are still rendered unless FailFast is set, in which case
// the first failure cancels the run and no files are returned. The returned
// error joins every per-file failure.
func Emit(ctx context.Context, g *schema.Graph, opts Options) (*Result, error) {
	opts = opts.normalized()
	log := logger.ComponentLogger("typegen")
	start := time.Now()

	units, err := Plan(g, opts)
	if err != nil {
		return nil, err
	}

	fileOpts := typescript.FileOptions{
		Naming:        opts.Naming,
		RuntimeModule: opts.RuntimeModule,
		CoreModule:    opts.CoreModule,
		StrictDecode:  opts.StrictDecode,
	}

	slots := make([]emitted, len(units))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Parallelism)
	for i, unit := range units {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			content, err := typescript.EmitFile(g, unit, fileOpts)
			slots[i] = emitted{content: content, err: err}
			if err != nil && opts.FailFast {
				return err
			}
			return nil
		})
	}
	waitErr := eg.Wait()

	res := &Result{}
	var errs []error
	exports := make(map[string]*typescript.PackageExport)
	var order []string
	for i, unit := range units {
		slot := slots[i]
		if slot.err != nil {
			log.Warnw("Failed to emit file",
				logger.FieldFile, unit.Source.Path,
				logger.FieldError, slot.err)
			res.Failed = append(res.Failed, unit.Source.Path)
			errs = append(errs, slot.err)
			continue
		}
		if slot.content == nil {
			continue
		}
		res.Files = append(res.Files, OutputFile{Path: unit.Output, Content: slot.content, Source: unit.Source.Path})

		pkg := unit.Source.Package
		if exports[pkg] == nil {
			exports[pkg] = &typescript.PackageExport{PackageName: pkg}
			order = append(order, pkg)
		}
		exports[pkg].Files = append(exports[pkg].Files, unit.Output)
	}

	if opts.FailFast && waitErr != nil {
		if len(errs) == 0 {
			errs = append(errs, waitErr)
		}
		res.Files = nil
		return res, errors.Join(errs...)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "generation cancelled")
	}

	if opts.EmitIndex {
		list := make([]typescript.PackageExport, 0, len(order))
		for _, pkg := range order {
			list = append(list, *exports[pkg])
		}
		for _, idx := range typescript.GenerateIndexFiles(list) {
			res.Files = append(res.Files, OutputFile{Path: idx.Path, Content: idx.Content})
		}
	}

	if opts.EmitReflection {
		data, err := g.MarshalReflection()
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode reflection metadata")
		}
		loader := typescript.GenerateReflectionLoader(opts.RuntimeModule)
		res.Files = append(res.Files,
			OutputFile{Path: typescript.ReflectionDocument, Content: data},
			OutputFile{Path: loader.Path, Content: loader.Content})
	}

	log.Infow("Emitted files",
		logger.FieldCount, len(res.Files),
		"failed", len(res.Failed),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return res, errors.Join(errs...)
}

// Generate emits the graph and writes every rendered file under outputRoot.
//
// Files that fail to render or to write are reported in Result.Failed and
// in the returned error; their siblings are still written unless FailFast is
// set. A file is never partially written.
func Generate(ctx context.Context, outputRoot string, g *schema.Graph, opts Options) (*Result, error) {
	opts = opts.normalized()
	log := logger.ChildLogger(logger.ComponentLogger("typegen"), logger.FieldRoot, outputRoot)

	res, emitErr := Emit(ctx, g, opts)
	if res == nil {
		return nil, emitErr
	}
	if emitErr != nil && opts.FailFast {
		return res, emitErr
	}

	status := make([]writeStatus, len(res.Files))
	writeErrs := make([]error, len(res.Files))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Parallelism)
	for i, f := range res.Files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			changed, err := WriteFile(outputRoot, f)
			if err != nil {
				writeErrs[i] = err
				if opts.FailFast {
					return err
				}
				return nil
			}
			status[i] = writeUnchanged
			if changed {
				status[i] = writeChanged
			}
			return nil
		})
	}
	waitErr := eg.Wait()

	errs := []error{emitErr}
	if waitErr != nil && ctx.Err() != nil {
		errs = append(errs, errors.Wrap(ctx.Err(), "generation cancelled"))
	}
	for i, f := range res.Files {
		switch {
		case writeErrs[i] != nil:
			log.Errorw("Failed to write file",
				logger.FieldOutput, f.Path,
				logger.FieldError, writeErrs[i])
			res.Failed = append(res.Failed, f.failedName())
			errs = append(errs, writeErrs[i])
		case status[i] == writeChanged:
			res.Written = append(res.Written, f.Path)
		case status[i] == writeUnchanged:
			res.Unchanged = append(res.Unchanged, f.Path)
		}
	}

	log.Infow("Generation complete",
		"written", len(res.Written),
		"unchanged", len(res.Unchanged),
		"failed", len(res.Failed))
	return res, errors.Join(errs...)
}
