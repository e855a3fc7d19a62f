// Package pipeline drives a batch run: it lists the input folder, admits at most
// Workers files at a time and takes each one through decode, resize, save,
// watermark and save again. Failures stay local to their file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/UnendingLoop/ImageBatcher/internal/imageproc"
	"github.com/UnendingLoop/ImageBatcher/internal/model"
	"github.com/UnendingLoop/ImageBatcher/internal/mwlogger"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"
)

// ImageSource - контракт для чтения входной папки
type ImageSource interface {
	List(ctx context.Context, dir string) ([]string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Stat(path string) (fs.FileInfo, error)
}

// ImageStorage - контракт для сохранения результатов
type ImageStorage interface {
	EnsureDir(ctx context.Context, dir string) error
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// ResultPublisher - контракт для отчета о каждом файле
type ResultPublisher interface {
	Publish(ctx context.Context, res model.FileResult) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, model.FileResult) error { return nil }

type Pipeline struct {
	opts       model.Options
	source     ImageSource
	storage    ImageStorage
	publisher  ResultPublisher
	onProgress ProgressFunc

	mu        sync.RWMutex
	watermark image.Image // shared read-only by all workers
	closed    bool

	cancelOnce sync.Once
	cancelCh   chan struct{}

	tracker    atomic.Pointer[Tracker]
	lastReport atomic.Pointer[model.BatchReport]
}

// New validates opts, checks that the input folder and the watermark exist and
// decodes the watermark once for the lifetime of the pipeline.
func New(opts model.Options, src ImageSource, strg ImageStorage, pub ResultPublisher, onProgress ProgressFunc) (*Pipeline, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if src == nil || strg == nil {
		return nil, fmt.Errorf("nil source or storage: %w", model.ErrInvalidOptions)
	}

	if info, err := src.Stat(opts.InputDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%q: %w", opts.InputDir, model.ErrFolderNotFound)
	}
	if info, err := src.Stat(opts.WatermarkPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("%q: %w", opts.WatermarkPath, model.ErrFileNotFound)
	}

	wm, err := decodeFile(context.Background(), src, opts.WatermarkPath)
	if err != nil {
		return nil, fmt.Errorf("load watermark %q: %w", opts.WatermarkPath, err)
	}

	if pub == nil {
		pub = noopPublisher{}
	}

	return &Pipeline{
		opts:       opts,
		source:     src,
		storage:    strg,
		publisher:  pub,
		onProgress: onProgress,
		watermark:  wm,
		cancelCh:   make(chan struct{}),
	}, nil
}

// Cancel asks workers to skip files they have not started yet. Files already in
// progress run to completion. Safe to call many times from any goroutine.
func (p *Pipeline) Cancel() {
	p.cancelOnce.Do(func() {
		close(p.cancelCh)
	})
}

// Close releases the shared watermark. Call it once Run has returned.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.watermark = nil
	p.Cancel()

	return nil
}

// Progress returns the state of the current or last run.
func (p *Pipeline) Progress() model.ProgressSnapshot {
	if t := p.tracker.Load(); t != nil {
		return t.Snapshot()
	}
	return model.ProgressSnapshot{}
}

// LastReport returns the report of the last finished run.
func (p *Pipeline) LastReport() (*model.BatchReport, error) {
	if r := p.lastReport.Load(); r != nil {
		return r, nil
	}
	return nil, model.ErrResultNotReady
}

// Run processes every supported file of the input folder. Per-file failures
// are reported in the returned BatchReport; an error is returned only when the
// batch itself cannot be set up.
func (p *Pipeline) Run(ctx context.Context) (*model.BatchReport, error) {
	wm, err := p.sharedWatermark()
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	logger := mwlogger.LoggerFromContext(ctx).With().Str("run_id", runID.String()).Logger()
	ctx = mwlogger.WithLogger(ctx, logger)
	// ctx only gates admission of new files; reads and writes run on ioCtx so
	// that cancellation never cuts a file in half
	ioCtx := context.WithoutCancel(ctx)

	entries, err := p.source.List(ioCtx, p.opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", p.opts.InputDir, err)
	}
	files := filterSupported(entries)

	for _, dir := range []string{model.ResizeDir, model.WatermarkedDir} {
		if err := p.storage.EnsureDir(ioCtx, dir); err != nil {
			return nil, fmt.Errorf("create output folder %q: %w", dir, err)
		}
	}

	tracker := NewTracker(len(files), p.onProgress)
	p.tracker.Store(tracker)
	logger.Info().Int("files", len(files)).Int("skipped_ext", len(entries)-len(files)).Int("workers", p.opts.Workers).Msg("Batch started")

	results := make([]model.FileResult, len(files))

	var g errgroup.Group
	g.SetLimit(p.opts.Workers)
	for i, file := range files {
		// blocks while Workers files are in flight
		g.Go(func() error {
			results[i] = p.processFile(ctx, ioCtx, runID, wm, file, tracker)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := summarize(runID, results, p.cancelled(ctx))
	p.lastReport.Store(report)

	logger.Info().
		Int("total", report.Total).
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Bool("cancelled", report.Cancelled).
		Msg("Batch finished")

	return report, nil
}

func (p *Pipeline) sharedWatermark() (image.Image, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, model.ErrPipelineClosed
	}
	return p.watermark, nil
}

func (p *Pipeline) cancelled(ctx context.Context) bool {
	select {
	case <-p.cancelCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// processFile never panics and never returns an error: every outcome lands in
// the FileResult. ctx is checked once before the file starts, ioCtx carries the work.
func (p *Pipeline) processFile(ctx, ioCtx context.Context, runID uuid.UUID, wm image.Image, file string, tracker *Tracker) (res model.FileResult) {
	res = model.FileResult{RunID: runID, Name: filepath.Base(file)}
	logger := mwlogger.LoggerFromContext(ctx).With().Str("file", res.Name).Logger()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Status = model.StatusFailed
			res.Err = fmt.Errorf("%w: %v", model.ErrUnexpected, r)
		}
		res.Elapsed = time.Since(start)
		if res.Err != nil {
			res.ErrMsg = res.Err.Error()
		}
		// status is final here, callbacks can no longer change it
		if res.Status == model.StatusDone {
			guarded(logger, "progress callback", func() { tracker.Done(res.Name) })
		}
		guarded(logger, "result report", func() { p.report(ioCtx, logger, res) })
	}()

	if p.cancelled(ctx) {
		res.Status = model.StatusSkipped
		return res
	}

	if err := p.transform(ioCtx, wm, file, &res); err != nil {
		res.Status = model.StatusFailed
		res.Err = err
		return res
	}

	res.Status = model.StatusDone
	return res
}

// guarded runs fn and logs a panic instead of letting it leave the worker goroutine.
func guarded(logger zlog.Zerolog, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("stage", what).Msg("Recovered panic after file was finished")
		}
	}()
	fn()
}

// transform runs decode -> resize -> save -> watermark -> save for one file.
// All intermediate buffers are local and die with the call.
func (p *Pipeline) transform(ctx context.Context, wm image.Image, file string, res *model.FileResult) error {
	src, err := decodeFile(ctx, p.source, file)
	if err != nil {
		return err
	}
	res.SourceWidth, res.SourceHeight = src.Bounds().Dx(), src.Bounds().Dy()

	resized, err := imageproc.Resize(src, p.opts.MaxWidth, p.opts.MaxHeight)
	if err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	res.Width, res.Height = resized.Bounds().Dx(), resized.Bounds().Dy()

	format := imageproc.FormatFromPath(file)

	res.ResizedKey = path.Join(model.ResizeDir, res.Name)
	if err := p.save(ctx, res.ResizedKey, resized, format); err != nil {
		return err
	}

	marked, pl, err := imageproc.Watermark(resized, wm, p.opts.Opacity)
	if err != nil {
		return fmt.Errorf("watermark: %w", err)
	}
	res.WatermarkX, res.WatermarkY = pl.X, pl.Y

	res.WatermarkedKey = path.Join(model.WatermarkedDir, res.Name)
	return p.save(ctx, res.WatermarkedKey, marked, format)
}

func (p *Pipeline) save(ctx context.Context, key string, img image.Image, format imaging.Format) error {
	r, size, err := imageproc.Encode(img, format)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	if err := p.storage.Put(ctx, key, size, model.GetCType[format], r); err != nil {
		return fmt.Errorf("%w %q: %w", model.ErrSave, key, err)
	}
	return nil
}

func (p *Pipeline) report(ctx context.Context, logger zlog.Zerolog, res model.FileResult) {
	switch res.Status {
	case model.StatusDone:
		logger.Info().
			Str("resized", res.ResizedKey).
			Str("watermarked", res.WatermarkedKey).
			Int("width", res.Width).
			Int("height", res.Height).
			Int("wm_x", res.WatermarkX).
			Int("wm_y", res.WatermarkY).
			Dur("elapsed", res.Elapsed).
			Msg("File processed")
	case model.StatusSkipped:
		logger.Warn().Msg("File skipped: batch cancelled")
	default:
		logger.Error().Err(res.Err).Msg("File failed")
	}

	if err := p.publisher.Publish(ctx, res); err != nil {
		logger.Error().Err(err).Msg("Failed to publish file result")
	}
}

func decodeFile(ctx context.Context, src ImageSource, file string) (image.Image, error) {
	rc, err := src.Open(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", file, err)
	}
	defer closeFileFlow(rc)

	img, err := imageproc.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", file, err)
	}
	return img, nil
}

func filterSupported(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if model.IsSupported(p) {
			out = append(out, p)
		}
	}
	return out
}

func summarize(runID uuid.UUID, results []model.FileResult, cancelled bool) *model.BatchReport {
	report := &model.BatchReport{RunID: runID, Total: len(results), Cancelled: cancelled, Results: results}
	for _, r := range results {
		switch r.Status {
		case model.StatusDone:
			report.Processed++
		case model.StatusFailed:
			report.Failed++
		case model.StatusSkipped:
			report.Skipped++
		}
	}
	return report
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil && !errors.Is(err, fs.ErrClosed) {
		zlog.Logger.Warn().Err(err).Msg("Pipeline failed to close fileflow")
	}
}
