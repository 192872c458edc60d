package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func validateChainPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("chain file is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve chain path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("chain file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("chain path %s is a directory", abs)
	}

	return nil
}
