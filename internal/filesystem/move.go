package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MoveFile moves src to dst, creating parent directories as needed. Rename
// is tried first; cross-device moves fall back to copy+delete with fsync.
func MoveFile(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("source file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil { //nolint:gosec // G301: 0755 is appropriate for application data directories
		return fmt.Errorf("creating destination directory: %w", err)
	}
	if err := renameSafe(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	return nil
}

var sanitizeReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// Sanitize makes a tag value safe to use as a single path component.
// Separator and shell-hostile characters become underscores; trailing dots
// and spaces are trimmed for Windows compatibility. An empty result falls
// back to "Unknown".
func Sanitize(name string) string {
	name = sanitizeReplacer.Replace(name)
	name = strings.Trim(name, ". ")
	if name == "" {
		return "Unknown"
	}
	return name
}
