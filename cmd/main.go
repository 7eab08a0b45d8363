package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/config"
	"github.com/WerlingM/privacy-exif-cleaner/editor"
	"github.com/WerlingM/privacy-exif-cleaner/logger"
	"github.com/WerlingM/privacy-exif-cleaner/output"
	"github.com/WerlingM/privacy-exif-cleaner/policy"
	"github.com/WerlingM/privacy-exif-cleaner/processor"
	"github.com/WerlingM/privacy-exif-cleaner/systeminfo"
	"github.com/WerlingM/privacy-exif-cleaner/tracing"
	"github.com/WerlingM/privacy-exif-cleaner/utils"
)

func main() {
	if err := tracing.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start trace: %v\n", err)
	} else {
		defer tracing.Stop()
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel)

	// Run-level preconditions fail the whole process; per-file errors
	// later never do.
	if err := utils.ValidateDirectory(cfg.InputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot create output directory %s: %v\n", cfg.OutputDir, err)
			os.Exit(1)
		}
		if !utils.CanWriteToDirectory(cfg.OutputDir) {
			fmt.Fprintf(os.Stderr, "Error: output directory %s is not writable\n", cfg.OutputDir)
			os.Exit(1)
		}
	} else if !cfg.DryRun {
		if !utils.CanWriteToDirectory(cfg.InputDir) {
			fmt.Fprintf(os.Stderr, "Error: input directory %s is not writable for in-place edits\n", cfg.InputDir)
			os.Exit(1)
		}
	}

	// Probe the external editor before any work; its absence is fatal.
	tool := editor.NewExifTool(cfg.ExifToolPath, cfg.ToolTimeout)
	toolVersion := ""
	if !cfg.DryRun {
		toolVersion, err = tool.Probe(context.Background())
		if err != nil {
			logger.Fatalf("%v", err)
		}
		logger.Debugf("exiftool version %s", toolVersion)
	}

	logger.Infof("Privacy level: %s", cfg.Level)
	if cfg.Verbose {
		for _, line := range policy.Explain(cfg.Level) {
			logger.Infof("  %s", line)
		}
	}
	if cfg.DryRun {
		logger.Info("Dry-run mode: no file will be modified")
	}

	// Record start time
	startTime := time.Now()

	sysInfo := systeminfo.GetSystemInfo()

	// Prepare output
	writer, err := output.New(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize output: %v", err)
	}
	defer writer.Close()

	writer.WriteRun(output.RunRecord{
		StartTime:       startTime.UTC().Format(time.RFC3339),
		ExifToolVersion: toolVersion,
		Engine:          cfg.Engine,
		PrivacyLevel:    cfg.Level.String(),
		DryRun:          cfg.DryRun,
		InputDir:        cfg.InputDir,
		OutputDir:       cfg.OutputDir,
		System:          sysInfo,
	})

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleSignals(cancel)

	stats, err := processor.Run(ctx, cfg, writer)
	if err != nil {
		logger.Fatalf("Processing failed: %v", err)
	}

	summary := stats.Summary(startTime)
	writer.WriteSummary(summary)
	printSummary(summary, cfg.DryRun)

	logger.Info("Processing completed successfully.")
}

func printSummary(s output.Summary, dryRun bool) {
	fmt.Println()
	fmt.Printf("Files processed:      %d\n", s.FilesProcessed)
	if dryRun {
		fmt.Printf("Files needing clean:  %d\n", s.FilesWouldClean)
	} else {
		fmt.Printf("Files cleaned:        %d\n", s.FilesCleaned)
	}
	fmt.Printf("Files already clean:  %d\n", s.FilesClean)
	fmt.Printf("Files failed:         %d\n", s.FilesFailed)
	fmt.Printf("Sensitive fields:     %d\n", s.TotalFindings)
	if len(s.Errors) > 0 {
		fmt.Println()
		fmt.Println("Errors:")
		for _, message := range s.Errors {
			fmt.Printf("  %s\n", message)
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	handleSignalEvent(cancel, sigChan)
}

func handleSignalEvent(cancel context.CancelFunc, sigChan chan os.Signal) {
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")
	cancel()
}
