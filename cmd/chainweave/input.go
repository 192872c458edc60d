package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// collectRunInput assembles the initial chain input from the three flag
// sources. The input file is read first, then --input, then --set pairs,
// so later sources override earlier ones field by field. --set values
// stay strings.
func collectRunInput(opts runOptions) (map[string]any, error) {
	input := map[string]any{}

	if opts.InputFile != "" {
		fields, err := readInputFile(opts.InputFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fields {
			input[k] = v
		}
	}

	if opts.InputJSON != "" {
		fields := map[string]any{}
		if err := json.Unmarshal([]byte(opts.InputJSON), &fields); err != nil {
			return nil, fmt.Errorf("parse --input: %w", err)
		}
		for k, v := range fields {
			input[k] = v
		}
	}

	for _, pair := range opts.Sets {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --set %q (expected key=value)", pair)
		}
		input[key] = value
	}

	return input, nil
}

func readInputFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}

	fields := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parse input file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("parse input file %s: %w", path, err)
		}
	}

	return fields, nil
}
