package processor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/config"
	"github.com/WerlingM/privacy-exif-cleaner/editor"
	"github.com/WerlingM/privacy-exif-cleaner/logger"
	"github.com/WerlingM/privacy-exif-cleaner/metadata"
	"github.com/WerlingM/privacy-exif-cleaner/output"
	"github.com/WerlingM/privacy-exif-cleaner/tracing"
	"github.com/WerlingM/privacy-exif-cleaner/utils"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

type fileTask struct {
	path string
	info os.FileInfo
}

// Stats accumulates run-level counters across workers.
type Stats struct {
	FilesScanned    atomic.Int64
	FilesProcessed  atomic.Int64
	FilesCleaned    atomic.Int64
	FilesClean      atomic.Int64
	FilesWouldClean atomic.Int64
	FilesFailed     atomic.Int64
	TotalFindings   atomic.Int64

	mu     sync.Mutex
	errors []string
}

func (s *Stats) addError(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, path+": "+err.Error())
}

// Errors returns a copy of the per-file error log.
func (s *Stats) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errors...)
}

func (s *Stats) record(res Result) {
	s.FilesProcessed.Add(1)
	s.TotalFindings.Add(int64(len(res.Findings)))
	switch res.Outcome {
	case OutcomeNoOp:
		s.FilesClean.Add(1)
	case OutcomeDryRun:
		s.FilesWouldClean.Add(1)
	case OutcomeRemoved:
		s.FilesCleaned.Add(1)
	case OutcomeBackupFailed, OutcomeRemovalFailed, OutcomeIOError:
		s.FilesFailed.Add(1)
	}
	if res.Err != nil {
		s.addError(res.Path, res.Err)
	}
}

// Summary converts the counters to the report's summary record.
func (s *Stats) Summary(start time.Time) output.Summary {
	return output.Summary{
		StartTime:       start.UTC().Format(time.RFC3339),
		EndTime:         time.Now().UTC().Format(time.RFC3339),
		FilesScanned:    int(s.FilesScanned.Load()),
		FilesProcessed:  int(s.FilesProcessed.Load()),
		FilesCleaned:    int(s.FilesCleaned.Load()),
		FilesClean:      int(s.FilesClean.Load()),
		FilesWouldClean: int(s.FilesWouldClean.Load()),
		FilesFailed:     int(s.FilesFailed.Load()),
		TotalFindings:   int(s.TotalFindings.Load()),
		Errors:          s.Errors(),
	}
}

// Run walks the input directory and drives every matching image through
// the pipeline with a bounded worker pool. Per-file failures are
// recorded and never abort the batch.
func Run(ctx context.Context, cfg *config.Config, w *output.Writer) (*Stats, error) {
	ctx, endTask := tracing.StartTask(ctx, "run")
	defer endTask()

	adjustConcurrency(cfg)

	stats := &Stats{}
	matcher := utils.NewPatternMatcher(cfg.IncludePatterns, cfg.ExcludePatterns)

	var bar *progressbar.ProgressBar
	if cfg.SkipCount {
		logger.Info("Skipping total file count")
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Cleaning images"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	} else {
		logger.Info("Counting total number of files...")
		total, err := countTotalFiles(ctx, cfg, matcher)
		if err != nil {
			logger.Warnf("Failed to count files in %s: %v", cfg.InputDir, err)
		}
		logger.Infof("Total files to process: %d", total)
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Cleaning images"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetVisibility(progressVisible()),
			progressbar.OptionFullWidth(),
		)
	}

	progressCh := make(chan int, maxInt(cfg.ConcurrencyLevel*4, 64))
	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		for delta := range progressCh {
			_ = bar.Add(delta)
		}
	}()

	var ioLimiter *rate.Limiter
	if cfg.MaxIOPerSecond > 0 {
		ioLimiter = rate.NewLimiter(rate.Limit(cfg.MaxIOPerSecond), cfg.MaxIOPerSecond)
	}

	filesChan := make(chan fileTask, cfg.ConcurrencyLevel)

	go func() {
		defer close(filesChan)
		err := fastWalker{}.Walk(ctx, cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warnf("Failed to access %s: %v", path, err)
				return nil
			}
			if d == nil {
				return nil
			}
			if d.IsDir() {
				if !cfg.Recursive && path != cfg.InputDir {
					return fs.SkipDir
				}
				if cfg.OutputDir != "" && utils.IsPathWithin(path, []string{cfg.OutputDir}) {
					return fs.SkipDir
				}
				return nil
			}
			if !utils.IsSupportedImage(path) || !matcher.ShouldInclude(path) {
				return nil
			}
			info, ierr := d.Info()
			if ierr != nil {
				logger.Warnf("Failed to stat %s: %v", path, ierr)
				return nil
			}
			if cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize {
				logger.Debugf("Skipping %s: larger than %s", path, utils.FormatFileSize(cfg.MaxFileSize))
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case filesChan <- fileTask{path: path, info: info}:
				if ioLimiter != nil {
					if err := ioLimiter.Wait(ctx); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil && err != context.Canceled {
			logger.Warnf("Error walking path %s: %v", cfg.InputDir, err)
		}
	}()

	var wg sync.WaitGroup
	for range cfg.ConcurrencyLevel {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decoder, closeDecoder := newDecoder(cfg)
			defer closeDecoder()
			pipeline := NewPipeline(cfg, decoder, editor.NewExifTool(cfg.ExifToolPath, cfg.ToolTimeout))

			for task := range filesChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				stats.FilesScanned.Add(1)
				res := pipeline.Process(ctx, task.path)
				stats.record(res)
				reportResult(cfg, w, task, res)
				progressCh <- 1
			}
		}()
	}

	wg.Wait()
	close(progressCh)
	progressWG.Wait()
	return stats, nil
}

func reportResult(cfg *config.Config, w *output.Writer, task fileTask, res Result) {
	if res.Err != nil {
		logger.Warnf("%v", res.Err)
	}
	if cfg.Verbose && len(res.Findings) > 0 {
		logger.Infof("%s: %d privacy-sensitive field(s) [%s]",
			task.path, len(res.Findings), strings.Join(res.Categories, ", "))
		for _, finding := range res.Findings {
			logger.Debugf("  %s", finding.Description)
		}
	}
	if w == nil {
		return
	}

	rec := output.FileRecord{
		Path:       res.Path,
		Name:       filepath.Base(res.Path),
		Size:       task.info.Size(),
		Outcome:    string(res.Outcome),
		Categories: res.Categories,
		Hash:       res.Hash,
		BackupPath: res.BackupPath,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	for _, finding := range res.Findings {
		rec.Findings = append(rec.Findings, output.FindingRecord{
			Tag:         string(finding.ID),
			Category:    finding.Category.String(),
			Description: finding.Description,
		})
	}
	w.WriteFile(rec)
}

// newDecoder builds the metadata decoder for one worker. The exiftool
// decoder keeps a resident subprocess per worker; the native decoder is
// stateless.
func newDecoder(cfg *config.Config) (metadata.Decoder, func()) {
	if cfg.Engine == "exiftool" {
		decoder, err := metadata.NewExifToolDecoder(cfg.ExifToolPath)
		if err == nil {
			return decoder, decoder.Close
		}
		logger.Warnf("exiftool decoder unavailable, falling back to native: %v", err)
	}
	return metadata.NewNative(), func() {}
}

func countTotalFiles(ctx context.Context, cfg *config.Config, matcher *utils.PatternMatcher) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var total int
	err := fastWalker{}.Walk(ctx, cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnf("Failed to access %s: %v", path, err)
			return nil
		}
		if d == nil {
			return nil
		}
		if d.IsDir() {
			if !cfg.Recursive && path != cfg.InputDir {
				return fs.SkipDir
			}
			return nil
		}
		if !utils.IsSupportedImage(path) || !matcher.ShouldInclude(path) {
			return nil
		}
		if cfg.MaxFileSize > 0 {
			if info, ierr := d.Info(); ierr == nil && info.Size() > cfg.MaxFileSize {
				return nil
			}
		}
		total++
		return nil
	})
	return total, err
}

func adjustConcurrency(cfg *config.Config) {
	if cfg.ConcurrencySet {
		return
	}
	numCPU := runtime.NumCPU()
	switch cfg.NiceLevel {
	case "high":
		cfg.ConcurrencyLevel = numCPU
	case "medium":
		cfg.ConcurrencyLevel = numCPU / 2
		if cfg.ConcurrencyLevel < 1 {
			cfg.ConcurrencyLevel = 1
		}
	case "low":
		cfg.ConcurrencyLevel = 1
	}
}

func progressVisible() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("EXIF_CLEANER_DISABLE_PROGRESS")))
	return value != "1" && value != "true" && value != "yes" && value != "on"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
