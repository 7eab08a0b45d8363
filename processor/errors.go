package processor

import "fmt"

// IOError reports a file whose bytes could not be read or written. The
// run continues past it.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("could not read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// BackupError reports a failed or unverifiable backup copy. Removal is
// skipped for the file to avoid data loss.
type BackupError struct {
	Path       string
	BackupPath string
	Err        error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("could not back up %s to %s: %v", e.Path, e.BackupPath, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// ToolInvocationError reports a removal collaborator failure for one
// file. The original file is left unmodified.
type ToolInvocationError struct {
	Path string
	Err  error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("removal failed for %s: %v", e.Path, e.Err)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }
