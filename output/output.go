package output

import (
	"bufio"
	"os"
	"sync"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/config"
	"github.com/WerlingM/privacy-exif-cleaner/logger"
	"github.com/WerlingM/privacy-exif-cleaner/systeminfo"
	"github.com/WerlingM/privacy-exif-cleaner/version"
)

// SchemaVersion identifies the report record layout. Bump on any
// incompatible change to the record structs below.
const SchemaVersion = "1.0"

// RunRecord is the first line of every report. It captures the run
// configuration and the host it executed on.
type RunRecord struct {
	RecordType      string                 `json:"record_type"`
	SchemaVersion   string                 `json:"schema_version"`
	StartTime       string                 `json:"start_time"`
	ToolVersion     string                 `json:"tool_version"`
	ExifToolVersion string                 `json:"exiftool_version,omitempty"`
	Engine          string                 `json:"engine"`
	PrivacyLevel    string                 `json:"privacy_level"`
	DryRun          bool                   `json:"dry_run"`
	InputDir        string                 `json:"input_dir"`
	OutputDir       string                 `json:"output_dir,omitempty"`
	System          *systeminfo.SystemInfo `json:"system,omitempty"`
}

// FindingRecord is one privacy-sensitive field detected in a file.
type FindingRecord struct {
	Tag         string `json:"tag"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// FileRecord is one line per processed file.
type FileRecord struct {
	RecordType string          `json:"record_type"`
	Path       string          `json:"path"`
	Name       string          `json:"name"`
	Size       int64           `json:"size"`
	Outcome    string          `json:"outcome"`
	Findings   []FindingRecord `json:"findings,omitempty"`
	Categories []string        `json:"categories,omitempty"`
	Hash       string          `json:"hash,omitempty"`
	BackupPath string          `json:"backup_path,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
}

// Summary is the last line of the report.
type Summary struct {
	RecordType      string   `json:"record_type"`
	SchemaVersion   string   `json:"schema_version"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	FilesScanned    int      `json:"files_scanned"`
	FilesProcessed  int      `json:"files_processed"`
	FilesCleaned    int      `json:"files_cleaned"`
	FilesClean      int      `json:"files_already_clean"`
	FilesWouldClean int      `json:"files_would_clean"`
	FilesFailed     int      `json:"files_failed"`
	TotalFindings   int      `json:"total_findings"`
	Errors          []string `json:"errors,omitempty"`
}

// Writer appends NDJSON records to the report file and mirrors each
// record to the OTLP log exporter when one is configured. Either sink
// may be absent; a Writer with neither is a no-op.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	otel *otelLogger
}

func New(cfg *config.Config) (*Writer, error) {
	w := &Writer{}
	if cfg != nil && cfg.ReportFile != "" {
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return nil, err
		}
		w.file = f
		w.buf = bufio.NewWriterSize(f, 64*1024)
	}
	if cfg != nil {
		otel, err := newOtelLogger(cfg)
		if err != nil {
			logger.Warnf("OTEL export disabled: %v", err)
		} else {
			w.otel = otel
		}
	}
	return w, nil
}

// WriteRun emits the run header record. Call once, before any file
// records.
func (w *Writer) WriteRun(rec RunRecord) {
	rec.RecordType = "run"
	rec.SchemaVersion = SchemaVersion
	if rec.StartTime == "" {
		rec.StartTime = time.Now().UTC().Format(time.RFC3339)
	}
	if rec.ToolVersion == "" {
		rec.ToolVersion = version.Version
	}
	w.writeRecord("run", rec)
}

func (w *Writer) WriteFile(rec FileRecord) {
	rec.RecordType = "file"
	w.writeRecord("file", rec)
}

func (w *Writer) WriteSummary(s Summary) {
	s.RecordType = "summary"
	s.SchemaVersion = SchemaVersion
	if s.EndTime == "" {
		s.EndTime = time.Now().UTC().Format(time.RFC3339)
	}
	w.writeRecord("summary", s)
}

func (w *Writer) writeRecord(recordType string, payload interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf != nil {
		bytes, err := jsonMarshal(payload)
		if err != nil {
			logger.Warnf("could not encode %s record: %v", recordType, err)
		} else {
			_, _ = w.buf.Write(bytes)
			_ = w.buf.WriteByte('\n')
			_ = w.buf.Flush()
		}
	}
	if w.otel != nil {
		w.otel.Emit(recordType, payload)
	}
}

func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf != nil {
		_ = w.buf.Flush()
	}
	if w.file != nil {
		_ = w.file.Sync()
		_ = w.file.Close()
		w.file = nil
		w.buf = nil
	}
	if w.otel != nil {
		w.otel.Shutdown()
		w.otel = nil
	}
}
