package utils

import (
	"fmt"
	"path/filepath"
)

func inTrustedRoot(path string, trustedRoot string) error {
	for {
		parent := filepath.Dir(path)
		if parent == trustedRoot {
			return nil
		}
		if parent == path {
			return fmt.Errorf("path is outside of trusted root")
		}
		path = parent
	}
}

// VerifyPath verifies that path, joined to basePath, stays below basePath.
func VerifyPath(path, basePath string) error {
	c := filepath.Clean(filepath.Join(basePath, path))
	return inTrustedRoot(c, filepath.Clean(basePath))
}
