package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/policy"
)

func resetFlags(t *testing.T, args ...string) {
	t.Helper()
	oldArgs := os.Args
	oldFlag := flag.CommandLine
	t.Cleanup(func() {
		os.Args = oldArgs
		flag.CommandLine = oldFlag
	})
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	os.Args = append([]string{"cmd"}, args...)
}

func TestParseCommaSeparated(t *testing.T) {
	res := parseCommaSeparated("a,b , c")
	if len(res) != 3 || res[1] != "b" {
		t.Fatalf("unexpected result: %v", res)
	}
	if res := parseCommaSeparated(""); len(res) != 0 {
		t.Fatalf("expected empty slice")
	}
}

func TestParseHeaders(t *testing.T) {
	res := parseHeaders("Authorization=Bearer test, Env=prod")
	if res["Authorization"] != "Bearer test" || res["Env"] != "prod" {
		t.Fatalf("unexpected result: %v", res)
	}
	if res := parseHeaders(""); len(res) != 0 {
		t.Fatalf("expected empty map")
	}
	if res := parseHeaders("novalue"); len(res) != 0 {
		t.Fatalf("expected malformed entries to be dropped, got %v", res)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmp, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatalf("temp: %v", err)
	}
	tmp.WriteString(`{"input_dir":"/photos","privacy_level":"strict","recursive":true,"concurrency_level":3}`)
	tmp.Close()
	defer os.Remove(tmp.Name())

	cfg := &Config{}
	if err := cfg.loadFromFile(tmp.Name()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InputDir != "/photos" || cfg.PrivacyLevel != "strict" || !cfg.Recursive {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.ConcurrencyLevel != 3 || !cfg.ConcurrencySet {
		t.Fatalf("expected concurrency from file to count as explicit: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			InputDir:         "/photos",
			PrivacyLevel:     "standard",
			Engine:           "native",
			ConcurrencyLevel: 1,
			NiceLevel:        "high",
			LogLevel:         "info",
		}
	}

	cfg := base()
	cfg.InputDir = ""
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for missing input directory")
	}
	cfg = base()
	cfg.PrivacyLevel = "extreme"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid privacy level error")
	}
	cfg = base()
	cfg.Engine = "magick"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid engine error")
	}
	cfg = base()
	cfg.ConcurrencyLevel = 0
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid concurrency")
	}
	cfg = base()
	cfg.NiceLevel = "bad"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid nice level")
	}
	cfg = base()
	cfg.LogLevel = "bad"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected invalid log level")
	}
	cfg = base()
	cfg.OtelEndpoint = "otel.example.com"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected missing scheme error")
	}
	cfg = base()
	if err := cfg.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Level != policy.Standard {
		t.Fatalf("expected parsed level standard, got %s", cfg.Level)
	}
}

func TestPrivacyLevelFlag(t *testing.T) {
	resetFlags(t, "--input", "/photos", "--privacy", "Paranoid")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Level != policy.Paranoid {
		t.Fatalf("expected paranoid level, got %s", cfg.Level)
	}
}

func TestDefaults(t *testing.T) {
	resetFlags(t, "--input", "/photos")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Level != policy.Standard {
		t.Fatalf("expected standard default, got %s", cfg.Level)
	}
	if cfg.Engine != "native" {
		t.Fatalf("expected native engine default, got %s", cfg.Engine)
	}
	if !cfg.SkipCount {
		t.Fatal("expected skip-count default to be enabled")
	}
	if cfg.Recursive || cfg.Backup || cfg.DryRun {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestVerboseRaisesLogLevel(t *testing.T) {
	resetFlags(t, "--input", "/photos", "--verbose")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %s", cfg.LogLevel)
	}

	resetFlags(t, "--input", "/photos", "--verbose", "--log-level", "warn")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected explicit log level to win, got %s", cfg.LogLevel)
	}
}

func TestEngineAndToolFlags(t *testing.T) {
	resetFlags(t,
		"--input", "/photos",
		"--engine", "ExifTool",
		"--exiftool", "/opt/bin/exiftool",
		"--tool-timeout", "30s",
	)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine != "exiftool" {
		t.Fatalf("unexpected engine: %s", cfg.Engine)
	}
	if cfg.ExifToolPath != "/opt/bin/exiftool" {
		t.Fatalf("unexpected exiftool path: %s", cfg.ExifToolPath)
	}
	if cfg.ToolTimeout != 30*time.Second {
		t.Fatalf("unexpected tool timeout: %v", cfg.ToolTimeout)
	}
}

func TestOtelFlags(t *testing.T) {
	resetFlags(t,
		"--input", "/photos",
		"--otel-endpoint", "https://otel.example.com/v1/logs",
		"--otel-export-paths",
		"--otel-headers", "Authorization=Bearer test,Env=prod",
		"--otel-service-name", "cleaner-agent",
		"--otel-timeout", "10s",
	)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OtelEndpoint != "https://otel.example.com/v1/logs" {
		t.Fatalf("unexpected otel endpoint: %s", cfg.OtelEndpoint)
	}
	if cfg.OtelServiceName != "cleaner-agent" {
		t.Fatalf("unexpected otel service name: %s", cfg.OtelServiceName)
	}
	if cfg.OtelTimeout != 10*time.Second {
		t.Fatalf("unexpected otel timeout: %v", cfg.OtelTimeout)
	}
	if !cfg.OtelExportPaths {
		t.Fatal("expected otel path export enabled")
	}
	if cfg.OtelHeaders["Authorization"] != "Bearer test" || cfg.OtelHeaders["Env"] != "prod" {
		t.Fatalf("unexpected otel headers: %v", cfg.OtelHeaders)
	}
}

func TestFlagOverridesConfigFile(t *testing.T) {
	tmp, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatalf("temp: %v", err)
	}
	tmp.WriteString(`{"input_dir":"/from-file","privacy_level":"minimal"}`)
	tmp.Close()
	defer os.Remove(tmp.Name())

	resetFlags(t, "--config", tmp.Name(), "--privacy", "strict")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InputDir != "/from-file" {
		t.Fatalf("expected input from file, got %s", cfg.InputDir)
	}
	if cfg.Level != policy.Strict {
		t.Fatalf("expected flag to override file, got %s", cfg.Level)
	}
}
