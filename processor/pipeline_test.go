package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/WerlingM/privacy-exif-cleaner/config"
	"github.com/WerlingM/privacy-exif-cleaner/editor"
	"github.com/WerlingM/privacy-exif-cleaner/hasher"
	"github.com/WerlingM/privacy-exif-cleaner/metadata"
	"github.com/WerlingM/privacy-exif-cleaner/policy"
)

type fakeDecoder struct {
	fields []metadata.Field
	err    error
}

func (d *fakeDecoder) Decode(path string, data []byte) ([]metadata.Field, error) {
	return d.fields, d.err
}

type removerCall struct {
	src  string
	dst  string
	args []string
}

type fakeRemover struct {
	calls []removerCall
	err   error
}

func (r *fakeRemover) Apply(ctx context.Context, src, dst string, plan editor.Plan) error {
	r.calls = append(r.calls, removerCall{src: src, dst: dst, args: plan.Args()})
	return r.err
}

func testConfig(level policy.Level) *config.Config {
	return &config.Config{Level: level}
}

func writeTestImage(t *testing.T, name string) (string, []byte) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := []byte("fake image bytes for " + name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path, content
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func TestPipelineMinimalGPSOnly(t *testing.T) {
	path, _ := writeTestImage(t, "gps.jpg")
	decoder := &fakeDecoder{fields: []metadata.Field{
		{ID: "GPSLatitude", Value: "52.52"},
		{ID: "GPSLongitude", Value: "13.40"},
	}}
	remover := &fakeRemover{}
	p := NewPipeline(testConfig(policy.Minimal), decoder, remover)

	res := p.Process(context.Background(), path)
	if res.State != StateRemoved || res.Outcome != OutcomeRemoved {
		t.Fatalf("state = %s, outcome = %s", res.State, res.Outcome)
	}
	if len(res.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(res.Findings))
	}
	if len(res.Categories) != 1 || res.Categories[0] != "Location Data" {
		t.Fatalf("categories = %v, want [Location Data]", res.Categories)
	}
	if len(remover.calls) != 1 {
		t.Fatalf("remover calls = %d, want 1", len(remover.calls))
	}
	call := remover.calls[0]
	if call.src != path || call.dst != path {
		t.Fatalf("expected in-place invocation, got src=%s dst=%s", call.src, call.dst)
	}
	if !hasArg(call.args, "-gps:all=") {
		t.Fatalf("expected GPS group clear in args, got %v", call.args)
	}
}

func TestPipelineStandardArtist(t *testing.T) {
	path, _ := writeTestImage(t, "artist.jpg")
	decoder := &fakeDecoder{fields: []metadata.Field{
		{ID: "GPSLatitude", Value: "52.52"},
		{ID: "Artist", Value: "Jane Photographer"},
	}}
	remover := &fakeRemover{}
	p := NewPipeline(testConfig(policy.Standard), decoder, remover)

	res := p.Process(context.Background(), path)
	if res.Outcome != OutcomeRemoved {
		t.Fatalf("outcome = %s, want removed", res.Outcome)
	}
	var foundArtist bool
	for _, finding := range res.Findings {
		if finding.ID == "Artist" {
			foundArtist = true
			if finding.Category.String() != "Personal Information" {
				t.Fatalf("Artist category = %s", finding.Category)
			}
		}
	}
	if !foundArtist {
		t.Fatal("expected Artist finding at standard level")
	}
	if !hasArg(remover.calls[0].args, "-Artist=") {
		t.Fatalf("expected explicit Artist clear, got %v", remover.calls[0].args)
	}
}

func TestPipelineNoMetadataIsNoOp(t *testing.T) {
	path, _ := writeTestImage(t, "plain.jpg")
	remover := &fakeRemover{}
	p := NewPipeline(testConfig(policy.Strict), &fakeDecoder{}, remover)

	res := p.Process(context.Background(), path)
	if res.State != StateNoOp || res.Outcome != OutcomeNoOp {
		t.Fatalf("state = %s, outcome = %s", res.State, res.Outcome)
	}
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(remover.calls) != 0 {
		t.Fatal("expected no remover invocation")
	}
}

func TestPipelineDecodeErrorIsContained(t *testing.T) {
	path, _ := writeTestImage(t, "broken.jpg")
	decoder := &fakeDecoder{err: &metadata.DecodeError{Path: path, Err: fmt.Errorf("truncated IFD")}}
	remover := &fakeRemover{}
	p := NewPipeline(testConfig(policy.Standard), decoder, remover)

	res := p.Process(context.Background(), path)
	if res.Outcome != OutcomeNoOp {
		t.Fatalf("outcome = %s, want noop", res.Outcome)
	}
	var decodeErr *metadata.DecodeError
	if !errors.As(res.Err, &decodeErr) {
		t.Fatalf("expected decode error to be recorded, got %v", res.Err)
	}
	if len(remover.calls) != 0 {
		t.Fatal("expected no remover invocation")
	}
}

func TestPipelineDryRunLeavesFileUntouched(t *testing.T) {
	path, original := writeTestImage(t, "dry.jpg")
	decoder := &fakeDecoder{fields: []metadata.Field{
		{ID: "GPSLatitude", Value: "1"},
		{ID: "GPSLongitude", Value: "2"},
		{ID: "Artist", Value: "Jane"},
	}}
	remover := &fakeRemover{}
	cfg := testConfig(policy.Standard)
	cfg.DryRun = true
	p := NewPipeline(cfg, decoder, remover)

	res := p.Process(context.Background(), path)
	if res.State != StateDryRun || res.Outcome != OutcomeDryRun {
		t.Fatalf("state = %s, outcome = %s", res.State, res.Outcome)
	}
	if len(res.Findings) != 3 {
		t.Fatalf("findings = %d, want 3", len(res.Findings))
	}
	if len(remover.calls) != 0 {
		t.Fatal("expected no remover invocation in dry-run mode")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(after) != string(original) {
		t.Fatal("file changed during dry run")
	}
}

func TestPipelineBackupFailedSkipsRemoval(t *testing.T) {
	path, original := writeTestImage(t, "guarded.jpg")
	// A directory on the backup path makes the copy fail.
	if err := os.Mkdir(path+".bak", 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	decoder := &fakeDecoder{fields: []metadata.Field{{ID: "GPSLatitude", Value: "1"}}}
	remover := &fakeRemover{}
	cfg := testConfig(policy.Minimal)
	cfg.Backup = true
	p := NewPipeline(cfg, decoder, remover)

	res := p.Process(context.Background(), path)
	if res.State != StateBackupFailed || res.Outcome != OutcomeBackupFailed {
		t.Fatalf("state = %s, outcome = %s", res.State, res.Outcome)
	}
	var backupErr *BackupError
	if !errors.As(res.Err, &backupErr) {
		t.Fatalf("expected *BackupError, got %v", res.Err)
	}
	if len(remover.calls) != 0 {
		t.Fatal("expected no remover invocation after backup failure")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(after) != string(original) {
		t.Fatal("file changed despite backup failure")
	}
}

func TestPipelineBackupCreated(t *testing.T) {
	path, original := writeTestImage(t, "kept.jpg")
	decoder := &fakeDecoder{fields: []metadata.Field{{ID: "GPSLatitude", Value: "1"}}}
	remover := &fakeRemover{}
	cfg := testConfig(policy.Minimal)
	cfg.Backup = true
	p := NewPipeline(cfg, decoder, remover)

	res := p.Process(context.Background(), path)
	if res.Outcome != OutcomeRemoved {
		t.Fatalf("outcome = %s, want removed", res.Outcome)
	}
	if res.BackupPath != path+".bak" {
		t.Fatalf("backup path = %s", res.BackupPath)
	}
	copied, err := os.ReadFile(res.BackupPath)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(copied) != string(original) {
		t.Fatal("backup content differs from original")
	}
}

func TestPipelineOutputDirSkipsBackup(t *testing.T) {
	path, _ := writeTestImage(t, "src.jpg")
	outDir := t.TempDir()
	decoder := &fakeDecoder{fields: []metadata.Field{{ID: "GPSLatitude", Value: "1"}}}
	remover := &fakeRemover{}
	cfg := testConfig(policy.Minimal)
	cfg.Backup = true
	cfg.OutputDir = outDir
	p := NewPipeline(cfg, decoder, remover)

	res := p.Process(context.Background(), path)
	if res.Outcome != OutcomeRemoved {
		t.Fatalf("outcome = %s, want removed", res.Outcome)
	}
	if res.BackupPath != "" {
		t.Fatal("expected no backup when writing to an output directory")
	}
	want := filepath.Join(outDir, "src.jpg")
	if remover.calls[0].dst != want {
		t.Fatalf("dst = %s, want %s", remover.calls[0].dst, want)
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Fatal("unexpected backup file on disk")
	}
}

func TestPipelineRemovalFailed(t *testing.T) {
	path, original := writeTestImage(t, "stubborn.jpg")
	decoder := &fakeDecoder{fields: []metadata.Field{{ID: "GPSLatitude", Value: "1"}}}
	remover := &fakeRemover{err: fmt.Errorf("exit status 1")}
	p := NewPipeline(testConfig(policy.Minimal), decoder, remover)

	res := p.Process(context.Background(), path)
	if res.State != StateRemovalFailed || res.Outcome != OutcomeRemovalFailed {
		t.Fatalf("state = %s, outcome = %s", res.State, res.Outcome)
	}
	var toolErr *ToolInvocationError
	if !errors.As(res.Err, &toolErr) {
		t.Fatalf("expected *ToolInvocationError, got %v", res.Err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(after) != string(original) {
		t.Fatal("file changed despite removal failure")
	}
}

func TestPipelineSniffMismatchIsSkipped(t *testing.T) {
	// A PDF wearing a .jpg extension: the content sniff wins.
	path := filepath.Join(t.TempDir(), "really-a-pdf.jpg")
	if err := os.WriteFile(path, []byte("%PDF-1.7\nnot an image"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	decoder := &fakeDecoder{fields: []metadata.Field{{ID: "GPSLatitude", Value: "1"}}}
	remover := &fakeRemover{}
	p := NewPipeline(testConfig(policy.Minimal), decoder, remover)

	res := p.Process(context.Background(), path)
	if res.Outcome != OutcomeNoOp {
		t.Fatalf("outcome = %s, want noop", res.Outcome)
	}
	if len(res.Findings) != 0 {
		t.Fatalf("expected no findings past the sniff gate, got %d", len(res.Findings))
	}
	if len(remover.calls) != 0 {
		t.Fatal("expected no remover invocation")
	}
}

func TestPipelineUnreadableFile(t *testing.T) {
	p := NewPipeline(testConfig(policy.Standard), &fakeDecoder{}, &fakeRemover{})
	res := p.Process(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	if res.Outcome != OutcomeIOError {
		t.Fatalf("outcome = %s, want io_error", res.Outcome)
	}
	if res.State != StatePending {
		t.Fatalf("state = %s, want pending", res.State)
	}
	var ioErr *IOError
	if !errors.As(res.Err, &ioErr) {
		t.Fatalf("expected *IOError, got %v", res.Err)
	}
}

func TestPipelineHashMatchesContent(t *testing.T) {
	path, content := writeTestImage(t, "hashed.jpg")
	p := NewPipeline(testConfig(policy.Standard), &fakeDecoder{}, &fakeRemover{})
	res := p.Process(context.Background(), path)
	if res.Hash != hasher.HashBytes(content) {
		t.Fatalf("hash = %s, want %s", res.Hash, hasher.HashBytes(content))
	}
	if len(res.Hash) != 16 || strings.ToLower(res.Hash) != res.Hash {
		t.Fatalf("hash format unexpected: %s", res.Hash)
	}
}
