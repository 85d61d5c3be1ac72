package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/imaging"
	"github.com/aronrissato/CarboPratos/internal/models"
	"github.com/aronrissato/CarboPratos/internal/plate"
)

// ResultStore persists plate results. Optional; a nil store disables
// persistence.
type ResultStore interface {
	SaveResult(ctx context.Context, result *models.PlateResult) error
}

// Progress is invoked once per finished image, in completion order.
type Progress func(done, total int, result *models.PlateResult)

// Stats are cumulative counters over every image this processor has seen.
type Stats struct {
	StartTime      time.Time `json:"start_time"`
	TotalProcessed int64     `json:"total_processed"`
	Succeeded      int64     `json:"succeeded"`
	Failed         int64     `json:"failed"`
	AverageLatency float64   `json:"average_latency_ms"`
}

// Processor runs the per-image pipeline over a directory. Images are fully
// independent units of work: a failure on one becomes that image's error
// variant and never aborts the batch. Result order always matches directory
// iteration order regardless of worker count.
type Processor struct {
	calculator *plate.Calculator
	store      ResultStore
	logger     *zap.Logger
	workers    int
	outputDir  string

	mutex sync.RWMutex
	stats Stats
}

// NewProcessor builds a batch processor. workers < 1 falls back to a single
// worker. outputDir == "" writes reports next to the images.
func NewProcessor(calculator *plate.Calculator, store ResultStore, workers int, outputDir string, logger *zap.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		calculator: calculator,
		store:      store,
		logger:     logger,
		workers:    workers,
		outputDir:  outputDir,
		stats:      Stats{StartTime: time.Now()},
	}
}

// ProcessDirectory analyzes every supported image in dir, writes one report
// per image, and returns the per-image results plus the batch summary. The
// only fatal error is an unreadable directory.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) ([]models.PlateResult, *models.BatchSummary, error) {
	return p.ProcessDirectoryWithProgress(ctx, dir, nil)
}

// ProcessDirectoryWithProgress is ProcessDirectory with a per-image
// completion callback, used by server mode to stream batch progress.
func (p *Processor) ProcessDirectoryWithProgress(ctx context.Context, dir string, progress Progress) ([]models.PlateResult, *models.BatchSummary, error) {
	started := time.Now()

	files, err := p.findImageFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	outputDir, err := p.setupOutputDirectory(dir)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Info("Processing directory",
		zap.String("dir", dir),
		zap.Int("images", len(files)),
		zap.Int("workers", p.workers))

	type job struct {
		index int
		path  string
	}

	results := make([]models.PlateResult, len(files))
	jobs := make(chan job)

	var done int
	var progressMutex sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				result := p.processImageFile(ctx, j.path, outputDir)
				results[j.index] = result

				if progress != nil {
					progressMutex.Lock()
					done++
					progress(done, len(files), &result)
					progressMutex.Unlock()
				}
			}
		}()
	}

	for i, f := range files {
		jobs <- job{index: i, path: f}
	}
	close(jobs)
	wg.Wait()

	summary := p.summarize(dir, results, time.Since(started))
	return results, summary, nil
}

// processImageFile runs one image through the pipeline, converting any
// failure (including a panic) into the result's error variant.
func (p *Processor) processImageFile(ctx context.Context, path, outputDir string) (result models.PlateResult) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Image processing panic",
				zap.String("image", path),
				zap.Any("panic", r))
			result = errorResult(path, fmt.Errorf("processing failed: %v", r))
		}
		p.recordLatency(time.Since(started), !result.Failed())
	}()

	plateResult, err := p.calculator.CalculatePlate(ctx, path)
	if err != nil {
		p.logger.Warn("Image failed",
			zap.String("image", path),
			zap.Error(err))
		result = errorResult(path, err)
	} else {
		result = *plateResult
	}

	if err := WriteReport(&result, path, outputDir); err != nil {
		p.logger.Error("Failed to write report",
			zap.String("image", path),
			zap.Error(err))
	}

	if p.store != nil {
		if err := p.store.SaveResult(ctx, &result); err != nil {
			p.logger.Warn("Failed to persist result",
				zap.String("image", path),
				zap.Error(err))
		}
	}

	return result
}

func (p *Processor) findImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imaging.SupportedExtension(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (p *Processor) setupOutputDirectory(dir string) (string, error) {
	if p.outputDir == "" {
		return dir, nil
	}
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return p.outputDir, nil
}

func (p *Processor) summarize(dir string, results []models.PlateResult, elapsed time.Duration) *models.BatchSummary {
	summary := &models.BatchSummary{
		Directory: dir,
		Processed: len(results),
		Elapsed:   elapsed,
	}
	var total float64
	for _, r := range results {
		if r.Failed() {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		total += r.TotalCalories
	}
	summary.TotalCalories = total
	return summary
}

func (p *Processor) recordLatency(latency time.Duration, ok bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.stats.TotalProcessed++
	if ok {
		p.stats.Succeeded++
	} else {
		p.stats.Failed++
	}

	current := float64(latency.Milliseconds())
	if p.stats.AverageLatency == 0 {
		p.stats.AverageLatency = current
	} else {
		alpha := 0.1
		p.stats.AverageLatency = alpha*current + (1-alpha)*p.stats.AverageLatency
	}
}

// GetStats returns a copy of the cumulative counters.
func (p *Processor) GetStats() Stats {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.stats
}

func errorResult(path string, err error) models.PlateResult {
	return models.PlateResult{
		ImagePath: path,
		Err:       err.Error(),
	}
}
