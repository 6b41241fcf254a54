package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var errUploadNotFound = errors.New("upload not found")

// safeDeleteUpload removes a single file directly under dir. Names that
// would resolve anywhere else are treated as missing.
func safeDeleteUpload(dir, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != filepath.Base(trimmed) || trimmed == "." || trimmed == ".." {
		return errUploadNotFound
	}

	cleanBase, err := filepath.Abs(filepath.Clean(dir))
	if err != nil {
		return fmt.Errorf("resolve upload dir: %w", err)
	}
	cleanTarget := filepath.Join(cleanBase, trimmed)
	if !strings.HasPrefix(cleanTarget, cleanBase+string(os.PathSeparator)) {
		return errUploadNotFound
	}

	info, err := os.Stat(cleanTarget)
	if err != nil {
		if os.IsNotExist(err) {
			return errUploadNotFound
		}
		return err
	}
	if info.IsDir() {
		return errUploadNotFound
	}
	return os.Remove(cleanTarget)
}
