package main

import (
	"os"
	"path/filepath"
)

const historyFileName = "history.json"

func defaultHistoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".chainweave", historyFileName), nil
}

// resolveHistoryPath maps the --history flag value onto a store file
// path. "off" disables recording, an explicit directory hosts the store
// file, and the empty value falls back to the home default.
func resolveHistoryPath(flag string) (string, bool, error) {
	switch flag {
	case "off":
		return "", false, nil
	case "":
		path, err := defaultHistoryPath()
		if err != nil {
			return "", false, err
		}
		return path, true, nil
	default:
		return filepath.Join(flag, historyFileName), true, nil
	}
}
