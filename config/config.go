package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/policy"
	"github.com/WerlingM/privacy-exif-cleaner/version"
)

type Config struct {
	InputDir         string            `json:"input_dir"`
	OutputDir        string            `json:"output_dir"`
	Recursive        bool              `json:"recursive"`
	Backup           bool              `json:"backup"`
	PrivacyLevel     string            `json:"privacy_level"`
	Verbose          bool              `json:"verbose"`
	DryRun           bool              `json:"dry_run"`
	ConcurrencyLevel int               `json:"concurrency_level"`
	NiceLevel        string            `json:"nice_level"`
	LogLevel         string            `json:"log_level"`
	IncludePatterns  []string          `json:"include_patterns"`
	ExcludePatterns  []string          `json:"exclude_patterns"`
	MaxFileSize      int64             `json:"max_file_size"`
	SkipCount        bool              `json:"skip_count"`
	MaxIOPerSecond   int               `json:"max_io_per_second"`
	MmapMinSize      int64             `json:"mmap_min_size"`
	Engine           string            `json:"engine"`
	ExifToolPath     string            `json:"exiftool_path"`
	ToolTimeout      time.Duration     `json:"tool_timeout"`
	PreserveTimes    bool              `json:"preserve_times"`
	ReportFile       string            `json:"report_file"`
	ConfigFile       string            `json:"config_file"`
	OtelEndpoint     string            `json:"otel_endpoint"`
	OtelFromEnv      bool              `json:"otel_from_env"`
	OtelHeaders      map[string]string `json:"otel_headers"`
	OtelServiceName  string            `json:"otel_service_name"`
	OtelTimeout      time.Duration     `json:"otel_timeout"`
	OtelExportPaths  bool              `json:"otel_export_paths"`

	// Level is the parsed form of PrivacyLevel.
	Level policy.Level `json:"-"`

	ConcurrencySet bool `json:"-"`
	LogLevelSet    bool `json:"-"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		PrivacyLevel:     "standard",
		ConcurrencyLevel: runtime.NumCPU(),
		NiceLevel:        "medium",
		LogLevel:         "info",
		IncludePatterns:  []string{},
		ExcludePatterns:  []string{},
		MaxFileSize:      0,
		SkipCount:        true,
		MaxIOPerSecond:   0,
		MmapMinSize:      128 * 1024,
		Engine:           "native",
		ToolTimeout:      0,
		OtelHeaders:      map[string]string{},
		OtelServiceName:  "privacy-exif-cleaner",
		OtelTimeout:      5 * time.Second,
	}

	inputDir := flag.String("input", "", "Input directory containing images (required).")
	outputDir := flag.String("output", "", "Output directory (default: none, modify in place).")
	recursive := flag.Bool("recursive", cfg.Recursive, fmt.Sprintf("Process subdirectories recursively (default: %t).", cfg.Recursive))
	backup := flag.Bool("backup", cfg.Backup, fmt.Sprintf("Create .bak backup files before in-place edits (default: %t).", cfg.Backup))
	privacyLevel := flag.String("privacy", cfg.PrivacyLevel, fmt.Sprintf("Privacy level: minimal, standard, strict, or paranoid (default: %s).", cfg.PrivacyLevel))
	verbose := flag.Bool("verbose", cfg.Verbose, fmt.Sprintf("Show detailed information about data being removed (default: %t).", cfg.Verbose))
	dryRun := flag.Bool("dry-run", cfg.DryRun, fmt.Sprintf("Report what would be removed without changing any file (default: %t).", cfg.DryRun))
	concurrency := flag.Int("concurrency", cfg.ConcurrencyLevel, fmt.Sprintf("Concurrency level (default: %d).", cfg.ConcurrencyLevel))
	nice := flag.String("nice", cfg.NiceLevel, fmt.Sprintf("Nice level: high, medium, or low (default: %s).", cfg.NiceLevel))
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	includes := flag.String("include", "", "Comma-separated list of include patterns (default: none).")
	excludes := flag.String("exclude", "", "Comma-separated list of exclude patterns (default: none).")
	maxFileSize := flag.Int64("max-file-size", cfg.MaxFileSize, "Maximum file size to process in bytes (default: 0, unlimited).")
	skipCount := flag.Bool("skip-count", cfg.SkipCount, "Skip initial file counting to start processing immediately")
	maxIO := flag.Int("max-io-per-second", cfg.MaxIOPerSecond, "Maximum files handed to workers per second (default: 0, unlimited).")
	mmapMinSize := flag.Int64("mmap-min-size", cfg.MmapMinSize, fmt.Sprintf("Minimum file size in bytes for the mmap read path (default: %d).", cfg.MmapMinSize))
	engine := flag.String("engine", cfg.Engine, "Metadata decode engine: native or exiftool (default: native).")
	exiftoolPath := flag.String("exiftool", "", "Path to the exiftool binary (default: resolve from PATH).")
	toolTimeout := flag.Duration("tool-timeout", cfg.ToolTimeout, "Deadline per exiftool invocation (default: 0, none).")
	preserveTimes := flag.Bool("preserve-times", cfg.PreserveTimes, fmt.Sprintf("Restore file times after in-place removal (default: %t).", cfg.PreserveTimes))
	reportFile := flag.String("report", "", "Write an NDJSON run report to this file (default: none).")
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint (default: none).")
	otelFromEnv := flag.Bool("otel-from-env", cfg.OtelFromEnv, "Allow OTEL endpoint fallback from OTEL environment variables (default: false).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, fmt.Sprintf("OTEL service name for export (default: %s).", cfg.OtelServiceName))
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	otelExportPaths := flag.Bool("otel-export-paths", cfg.OtelExportPaths, "Include raw file paths in OTEL payloads (default: false).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("privacy-exif-cleaner version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.InputDir = *inputDir
		case "output":
			cfg.OutputDir = *outputDir
		case "recursive":
			cfg.Recursive = *recursive
		case "backup":
			cfg.Backup = *backup
		case "privacy":
			cfg.PrivacyLevel = strings.ToLower(*privacyLevel)
		case "verbose":
			cfg.Verbose = *verbose
		case "dry-run":
			cfg.DryRun = *dryRun
		case "concurrency":
			cfg.ConcurrencyLevel = *concurrency
			cfg.ConcurrencySet = true
		case "nice":
			cfg.NiceLevel = *nice
		case "log-level":
			cfg.LogLevel = *logLevel
			cfg.LogLevelSet = true
		case "include":
			cfg.IncludePatterns = parseCommaSeparated(*includes)
		case "exclude":
			cfg.ExcludePatterns = parseCommaSeparated(*excludes)
		case "max-file-size":
			cfg.MaxFileSize = *maxFileSize
		case "skip-count":
			cfg.SkipCount = *skipCount
		case "max-io-per-second":
			cfg.MaxIOPerSecond = *maxIO
		case "mmap-min-size":
			cfg.MmapMinSize = *mmapMinSize
		case "engine":
			cfg.Engine = strings.ToLower(strings.TrimSpace(*engine))
		case "exiftool":
			cfg.ExifToolPath = strings.TrimSpace(*exiftoolPath)
		case "tool-timeout":
			cfg.ToolTimeout = *toolTimeout
		case "preserve-times":
			cfg.PreserveTimes = *preserveTimes
		case "report":
			cfg.ReportFile = *reportFile
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		case "otel-export-paths":
			cfg.OtelExportPaths = *otelExportPaths
		}
	})

	cfg.PrivacyLevel = strings.ToLower(strings.TrimSpace(cfg.PrivacyLevel))
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	if cfg.Engine == "" {
		cfg.Engine = "native"
	}
	if cfg.Verbose && !cfg.LogLevelSet {
		cfg.LogLevel = "debug"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func displayHelp() {
	fmt.Println("privacy-exif-cleaner - Removes privacy-sensitive EXIF data while preserving technical metadata")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  privacy-exif-cleaner --input DIR [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  privacy-exif-cleaner --input ./photos")
	fmt.Println("  privacy-exif-cleaner --input ./photos --output ./clean --privacy strict --recursive")
	fmt.Println("  privacy-exif-cleaner --input ./photos --backup --privacy paranoid --dry-run")
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	if _, ok := raw["concurrency_level"]; ok {
		cfg.ConcurrencySet = true
	}
	if _, ok := raw["log_level"]; ok {
		cfg.LogLevelSet = true
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.InputDir) == "" {
		return fmt.Errorf("--input directory is required")
	}
	level, err := policy.ParseLevel(cfg.PrivacyLevel)
	if err != nil {
		return err
	}
	cfg.Level = level
	if cfg.Engine != "native" && cfg.Engine != "exiftool" {
		return fmt.Errorf("invalid engine value: %s", cfg.Engine)
	}
	if cfg.ConcurrencyLevel <= 0 {
		return fmt.Errorf("concurrency level must be positive")
	}
	if cfg.NiceLevel != "high" && cfg.NiceLevel != "medium" && cfg.NiceLevel != "low" {
		return fmt.Errorf("invalid nice level: %s", cfg.NiceLevel)
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("max-file-size must be zero or positive")
	}
	if cfg.MaxIOPerSecond < 0 {
		return fmt.Errorf("max-io-per-second must be zero or positive")
	}
	if cfg.MmapMinSize < 0 {
		return fmt.Errorf("mmap-min-size must be zero or positive")
	}
	if cfg.ToolTimeout < 0 {
		return fmt.Errorf("tool-timeout must be zero or positive")
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" {
		if !strings.HasPrefix(cfg.OtelEndpoint, "http://") && !strings.HasPrefix(cfg.OtelEndpoint, "https://") {
			return fmt.Errorf("otel-endpoint must include scheme (http or https)")
		}
	}
	return nil
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}
