package processor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/analyzer"
	"github.com/WerlingM/privacy-exif-cleaner/config"
	"github.com/WerlingM/privacy-exif-cleaner/editor"
	"github.com/WerlingM/privacy-exif-cleaner/hasher"
	"github.com/WerlingM/privacy-exif-cleaner/logger"
	"github.com/WerlingM/privacy-exif-cleaner/metadata"
	"github.com/WerlingM/privacy-exif-cleaner/utils"
)

// Remover executes a removal plan against a source file. The production
// implementation shells out to exiftool; tests substitute an in-memory
// fake.
type Remover interface {
	Apply(ctx context.Context, src, dst string, plan editor.Plan) error
}

// Result is the terminal record of one file's trip through the pipeline.
type Result struct {
	Path       string
	State      State
	Outcome    Outcome
	Findings   []analyzer.Finding
	Categories []string
	Hash       string
	BackupPath string
	Duration   time.Duration
	Err        error
}

// Pipeline owns read, analyze, backup and removal for one file at a
// time. One instance per worker; not safe for concurrent use when its
// decoder is not.
type Pipeline struct {
	cfg     *config.Config
	decoder metadata.Decoder
	remover Remover
	plan    editor.Plan
}

func NewPipeline(cfg *config.Config, decoder metadata.Decoder, remover Remover) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		decoder: decoder,
		remover: remover,
		plan:    editor.BuildPlan(cfg.Level),
	}
}

// Process runs one file to a terminal state. Every error is contained in
// the returned Result; the batch never aborts on a per-file failure.
func (p *Pipeline) Process(ctx context.Context, path string) Result {
	start := time.Now()
	result := p.process(ctx, path)
	result.Duration = time.Since(start)
	return result
}

func (p *Pipeline) process(ctx context.Context, path string) Result {
	result := Result{Path: path, State: StatePending}

	data, err := metadata.ReadImage(path, p.cfg.MaxFileSize, p.cfg.MmapMinSize)
	if err != nil {
		result.Err = &IOError{Path: path, Err: err}
		result.Outcome = OutcomeIOError
		return result
	}
	result.Hash = hasher.HashBytes(data)

	// Extension said image; the content gets the final word. Files whose
	// sniffed type is some other known format are skipped, not failed.
	if format := metadata.SniffFormat(data); format != "" && !utils.IsSupportedImage("sniffed."+format) {
		logger.Warnf("Skipping %s: content is %s, not a supported image", path, format)
		p.advance(&result, StateAnalyzed)
		p.advance(&result, StateNoOp)
		return p.finish(result)
	}

	fields, err := p.decoder.Decode(path, data)
	if err != nil {
		// A malformed container yields no classifiable fields. The error
		// is reported but the file is not a batch failure.
		result.Err = err
		fields = nil
	}
	p.advance(&result, StateAnalyzed)

	findings := analyzer.Analyze(fields, p.cfg.Level)
	result.Findings = findings
	result.Categories = analyzer.Categories(findings)

	if len(findings) == 0 {
		p.advance(&result, StateNoOp)
		return p.finish(result)
	}
	if p.cfg.DryRun {
		p.advance(&result, StateDryRun)
		return p.finish(result)
	}

	dst := p.outputPath(path)
	inPlace := dst == path

	var saved *fileTimes
	if p.cfg.PreserveTimes && inPlace {
		if ft, err := captureTimes(path); err != nil {
			logger.Warnf("Could not capture file times for %s: %v", path, err)
		} else {
			saved = &ft
		}
	}

	if p.cfg.Backup && inPlace {
		backupPath, err := BackupFile(path)
		if err != nil {
			p.advance(&result, StateBackupFailed)
			result.Err = err
			return p.finish(result)
		}
		result.BackupPath = backupPath
	}

	p.advance(&result, StateRemoving)
	if err := p.remover.Apply(ctx, path, dst, p.plan); err != nil {
		p.advance(&result, StateRemovalFailed)
		result.Err = &ToolInvocationError{Path: path, Err: err}
		return p.finish(result)
	}
	p.advance(&result, StateRemoved)

	if saved != nil {
		if err := saved.restore(path); err != nil {
			logger.Warnf("Could not restore file times for %s: %v", path, err)
		}
	}
	return p.finish(result)
}

// outputPath resolves where the cleaned file is written: into the output
// directory under the original name, or in place when no output
// directory is configured.
func (p *Pipeline) outputPath(path string) string {
	if p.cfg.OutputDir == "" {
		return path
	}
	return filepath.Join(p.cfg.OutputDir, filepath.Base(path))
}

func (p *Pipeline) advance(result *Result, next State) {
	if !CanTransition(result.State, next) {
		logger.Errorf("illegal state transition %s -> %s for %s", result.State, next, result.Path)
		return
	}
	result.State = next
}

func (p *Pipeline) finish(result Result) Result {
	if outcome, ok := result.State.Outcome(); ok {
		result.Outcome = outcome
	}
	return result
}
