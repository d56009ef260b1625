// Package pipeline orchestrates one compression run: discover the
// files under the output directory, narrow them to the eligible set,
// compress each survivor concurrently and fold the outcomes into a
// report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"distpress/internal/catalog"
	"distpress/internal/codec"
	"distpress/internal/config"
	"distpress/internal/freshness"
	"distpress/internal/logger"
	"distpress/internal/report"

	"github.com/sirupsen/logrus"
)

// CompressFunc transforms one file's content. The default is
// codec.Compress; tests and embedders may substitute their own.
type CompressFunc func(data []byte, algo codec.Algorithm, opts codec.Options) ([]byte, error)

// ResultHookFunc receives each successful result as soon as the
// compressed sibling is on disk, before the run completes.
type ResultHookFunc func(res report.Result)

// Candidate is one file a run would consider, with the skip decision
// the freshness cache would make for it right now.
type Candidate struct {
	File       catalog.File
	OutputPath string
	UpToDate   bool
}

// Pipeline runs the selection-and-compression flow over a directory.
type Pipeline struct {
	cfg        *config.Config
	log        *logrus.Logger
	cache      *freshness.Cache
	compress   CompressFunc
	resultHook ResultHookFunc
	out        io.Writer
}

// New returns a Pipeline using the given freshness cache. The cache is
// owned by the caller: share one across runs to keep skip decisions,
// or pass a fresh one to force full reprocessing. A nil compress falls
// back to codec.Compress.
func New(cfg *config.Config, log *logrus.Logger, cache *freshness.Cache, compress CompressFunc) *Pipeline {
	return NewWithResultHook(cfg, log, cache, compress, nil)
}

// NewWithResultHook additionally streams every successful result to
// hook while the run is still in flight. The hook may be called from
// multiple worker goroutines.
func NewWithResultHook(cfg *config.Config, log *logrus.Logger, cache *freshness.Cache, compress CompressFunc, hook ResultHookFunc) *Pipeline {
	if compress == nil {
		compress = codec.Compress
	}
	return &Pipeline{
		cfg:        cfg,
		log:        log,
		cache:      cache,
		compress:   compress,
		resultHook: hook,
		out:        os.Stdout,
	}
}

// SetReportWriter redirects the rendered report away from stdout.
func (p *Pipeline) SetReportWriter(w io.Writer) {
	p.out = w
}

// Run executes one compression pass and returns its report. Per-file
// failures are collected into the report and never abort the run; the
// returned error is reserved for a failed discovery.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	if !p.cfg.Enabled {
		p.log.Info("Compression disabled, nothing to do")
		return report.Summarize(nil, nil, 0, 0), nil
	}

	start := time.Now()
	p.log.Infof("Starting compression of %s with %s", p.cfg.OutputDirectory, p.cfg.Algorithm)

	files, err := catalog.NewScanner(p.log).ListFiles(p.cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	selected := catalog.Select(files, p.cfg.Policy())
	p.log.Infof("Found %d files, %d eligible for compression", len(files), len(selected))

	algo := p.cfg.EffectiveAlgorithm()
	opts := codec.Resolve(algo, codec.Options(p.cfg.CodecOptions))
	ext := p.cfg.EffectiveExtension()

	outcomes := p.processAll(ctx, selected, algo, opts, ext)

	var results []report.Result
	var fileErrors []*report.FileError
	skipped := 0
	for _, o := range outcomes {
		switch {
		case o == nil:
			// Abandoned: the run was cancelled before a worker picked
			// this file up.
		case o.err != nil:
			fileErrors = append(fileErrors, o.err)
		case o.skipped:
			skipped++
		default:
			results = append(results, o.res)
		}
	}

	rep := report.Summarize(results, fileErrors, skipped, time.Since(start))

	if p.cfg.Verbose {
		fmt.Fprintln(p.out, rep.Render())
	}
	if p.cfg.OnComplete != nil {
		p.cfg.OnComplete(rep)
	}

	p.log.Infof("Compression completed: %d compressed, %d skipped, %d failed",
		len(rep.Results), rep.Skipped, len(rep.Errors))
	return rep, nil
}

// Scan reports what a run would do without touching any file:
// discovery and selection only, plus the skip decision the cache would
// make for each candidate.
func (p *Pipeline) Scan(ctx context.Context) ([]Candidate, error) {
	files, err := catalog.NewScanner(p.log).ListFiles(p.cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selected := catalog.Select(files, p.cfg.Policy())
	ext := p.cfg.EffectiveExtension()

	candidates := make([]Candidate, 0, len(selected))
	for _, f := range selected {
		candidates = append(candidates, Candidate{
			File:       f,
			OutputPath: f.Path + ext,
			UpToDate:   p.cache.ShouldSkip(f.Path, f.ModTime, f.Size, p.cfg.Filter.SizeThresholdBytes),
		})
	}
	return candidates, nil
}

type job struct {
	index int
	file  catalog.File
}

// outcome is the terminal state of one file in one run: compressed,
// skipped, or failed.
type outcome struct {
	res     report.Result
	err     *report.FileError
	skipped bool
}

// processAll fans the selected files out over a bounded worker pool
// and waits for every worker to finish. Outcomes come back indexed so
// the report lists files in discovery order regardless of completion
// order.
func (p *Pipeline) processAll(ctx context.Context, files []catalog.File, algo codec.Algorithm, opts codec.Options, ext string) []*outcome {
	if len(files) == 0 {
		return nil
	}

	numWorkers := p.cfg.Performance.WorkerThreads
	if numWorkers <= 0 {
		numWorkers = max(runtime.NumCPU(), 2)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	queueDepth := p.cfg.Performance.BatchSize
	if queueDepth <= 0 {
		queueDepth = len(files)
	}

	type indexed struct {
		index int
		out   *outcome
	}

	jobs := make(chan job, queueDepth)
	// The results buffer must hold every outcome: workers write before
	// the collector starts reading.
	results := make(chan indexed, len(files))

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results <- indexed{index: j.index, out: p.processFile(j.file, algo, opts, ext)}
			}
		}()
	}

feed:
	for i, f := range files {
		select {
		case jobs <- job{index: i, file: f}:
		case <-ctx.Done():
			// Workers are gone or leaving; stop feeding so close can
			// run and wg.Wait can return.
			break feed
		}
	}
	close(jobs)

	wg.Wait()
	close(results)

	outcomes := make([]*outcome, len(files))
	for r := range results {
		outcomes[r.index] = r.out
	}
	return outcomes
}

// processFile runs the per-file sequence: stat, freshness check, read,
// optional delete of the original, compress, write the sibling, record.
// The original is deleted before the codec runs, so a codec failure
// still leaves it removed; its bytes are already in memory and the
// compressed sibling is the delivery artifact either way.
func (p *Pipeline) processFile(f catalog.File, algo codec.Algorithm, opts codec.Options, ext string) *outcome {
	info, err := os.Stat(f.Path)
	if err != nil {
		return p.fail(f.Path, "stat", err)
	}
	mtime, size := info.ModTime(), info.Size()

	if p.cache.ShouldSkip(f.Path, mtime, size, p.cfg.Filter.SizeThresholdBytes) {
		p.log.Debugf("Skipping unchanged file: %s", f.RelPath)
		return &outcome{skipped: true}
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return p.fail(f.Path, "read", err)
	}

	if p.cfg.DeleteOriginal {
		if err := os.Remove(f.Path); err != nil {
			logger.WithFile(p.log, f.Path).Warnf("Could not delete original: %v", err)
		}
	}

	compressed, err := p.compress(data, algo, opts)
	if err != nil {
		return p.fail(f.Path, "compress", err)
	}

	outputPath := f.Path + ext
	if err := os.WriteFile(outputPath, compressed, 0644); err != nil {
		// The compressed bytes existed in memory but never reached
		// disk: the most severe per-file failure.
		return p.fail(f.Path, "write", err)
	}

	p.cache.Record(f.Path, mtime)

	res := report.Result{
		Path:           f.Path,
		RelPath:        f.RelPath,
		OutputPath:     outputPath,
		Algorithm:      algo.String(),
		OriginalSize:   size,
		CompressedSize: int64(len(compressed)),
	}
	if p.resultHook != nil {
		p.resultHook(res)
	}
	p.log.Debugf("Compressed %s: %d -> %d bytes", f.RelPath, size, len(compressed))
	return &outcome{res: res}
}

func (p *Pipeline) fail(path, op string, err error) *outcome {
	logger.WithFileOperation(p.log, path, op).Errorf("Compression failed: %v", err)
	return &outcome{err: &report.FileError{Path: path, Op: op, Err: err}}
}
