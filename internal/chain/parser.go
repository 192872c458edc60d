package chain

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseFile loads a chain document from disk, validates its shape, and
// returns the resulting definition. The codec is chosen by extension:
// .json documents decode as JSON, everything else as YAML.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, chainerrors.NewParseError(path, 0, err)
	}

	var def Definition
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, chainerrors.NewParseError(path, 0, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, chainerrors.NewParseError(path, extractLine(err), err)
		}
	}

	if err := ValidateDefinition(&def); err != nil {
		return nil, err
	}

	return &def, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
