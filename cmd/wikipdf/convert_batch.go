package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alnah/go-wikipdf"
	"github.com/alnah/go-wikipdf/internal/config"
)

// ErrPoolClosed is reported for files left when no converter could be acquired.
var ErrPoolClosed = errors.New("converter pool closed")

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, req wikipdf.Request) (*wikipdf.Result, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*wikipdf.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() CLIConverter
	Release(CLIConverter)
	Size() int
}

// converterPool adapts *wikipdf.ConverterPool to Pool.
type converterPool struct {
	pool *wikipdf.ConverterPool
}

// Compile-time interface implementation check.
var _ Pool = (*converterPool)(nil)

// newConverterPool creates a pool of n converters built with opts.
func newConverterPool(n int, opts ...wikipdf.Option) *converterPool {
	return &converterPool{pool: wikipdf.NewConverterPool(n, opts...)}
}

// Acquire returns nil once the pool is closed. The nil check keeps a nil
// *Converter from becoming a non-nil interface.
func (p *converterPool) Acquire() CLIConverter {
	if conv := p.pool.Acquire(); conv != nil {
		return conv
	}
	return nil
}

// Release returns a converter acquired from this pool.
func (p *converterPool) Release(c CLIConverter) {
	if conv, ok := c.(*wikipdf.Converter); ok {
		p.pool.Release(conv)
	}
}

// Size returns the pool capacity.
func (p *converterPool) Size() int {
	return p.pool.Size()
}

// Close releases the pool.
func (p *converterPool) Close() error {
	return p.pool.Close()
}

// conversionParams groups request fields shared by every file in a batch.
type conversionParams struct {
	chromePath    string
	renderMermaid bool
	mermaidJSPath string
	diagramMode   string
	header        wikipdf.Template
	footer        wikipdf.Template
}

// newConversionParams extracts the shared request fields from cfg.
func newConversionParams(cfg *config.Config) *conversionParams {
	return &conversionParams{
		chromePath:    cfg.Chrome.Path,
		renderMermaid: cfg.Mermaid.Enabled,
		mermaidJSPath: cfg.Mermaid.JSPath,
		diagramMode:   cfg.Mermaid.Mode,
		header:        wikipdf.Template{Literal: cfg.Header.Template, Path: cfg.Header.Path},
		footer:        wikipdf.Template{Literal: cfg.Footer.Template, Path: cfg.Footer.Path},
	}
}

// request builds the library request for one file.
func (p *conversionParams) request(f FileToConvert) wikipdf.Request {
	return wikipdf.Request{
		InputPath:     f.InputPath,
		OutputPath:    f.OutputPath,
		DiagramDir:    f.DiagramDir,
		ChromePath:    p.chromePath,
		RenderMermaid: p.renderMermaid,
		MermaidJSPath: p.mermaidJSPath,
		DiagramMode:   p.diagramMode,
		Header:        p.header,
		Footer:        p.footer,
	}
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Diagrams   int
	Err        error
	Hint       string // appended to the FAILED line
	Duration   time.Duration
}

// convertBatch processes files concurrently using the converter pool.
// Results keep the order of files.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv := pool.Acquire()
			if conv == nil {
				// Pool closed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ErrPoolClosed,
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile converts a single file and returns the result.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	res, err := conv.Convert(ctx, params.request(f))
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		result.Hint = hintFor(err, hintContext{chromePath: params.chromePath})
		return result
	}

	result.OutputPath = res.PDFPath
	result.Diagrams = len(res.Diagrams)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
	FirstErr  error
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			if summary.FirstErr == nil {
				summary.FirstErr = r.Err
			}
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResultsWithWriter outputs conversion results using the provided writers.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) ResultSummary {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, r.Hint)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d diagrams, %v)\n",
				r.InputPath, r.OutputPath, r.Diagrams, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary
}
