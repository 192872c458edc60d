package textstats

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/chainweave/chainweave/internal/plugin"
)

var (
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}_]+(?:'[\p{L}\p{N}_]+)?`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

type textStatsPlugin struct{}

// New creates a new text statistics plugin.
func New() plugin.Plugin {
	return &textStatsPlugin{}
}

func init() {
	if err := plugin.RegisterPlugin(New()); err != nil {
		panic(err)
	}
}

var _ plugin.Plugin = (*textStatsPlugin)(nil)

func (p *textStatsPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		ID:          "textstats",
		Name:        "Text Statistics",
		Version:     "1.0.0",
		Description: "Computes character, word, line and sentence statistics from text.",
		InputSchema: map[string]any{
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []any{"text"},
		},
		OutputSchema: map[string]any{
			"properties": map[string]any{
				"character_count":           map[string]any{"type": "integer"},
				"character_count_no_spaces": map[string]any{"type": "integer"},
				"word_count":                map[string]any{"type": "integer"},
				"line_count":                map[string]any{"type": "integer"},
				"unique_words":              map[string]any{"type": "integer"},
				"average_word_length":       map[string]any{"type": "number"},
				"sentence_count":            map[string]any{"type": "integer"},
			},
		},
	}
}

// Execute analyzes input["text"]. Absent or empty text produces all-zero
// statistics rather than an error.
func (p *textStatsPlugin) Execute(_ context.Context, input map[string]any) (map[string]any, error) {
	text, _ := input["text"].(string)
	if text == "" {
		return map[string]any{
			"character_count":           0,
			"character_count_no_spaces": 0,
			"word_count":                0,
			"line_count":                0,
			"unique_words":              0,
			"average_word_length":       0.0,
			"sentence_count":            0,
		}, nil
	}

	words := wordPattern.FindAllString(text, -1)

	unique := make(map[string]struct{}, len(words))
	totalWordLength := 0
	for _, word := range words {
		unique[strings.ToLower(word)] = struct{}{}
		totalWordLength += utf8.RuneCountInString(word)
	}

	averageWordLength := 0.0
	if len(words) > 0 {
		averageWordLength = math.Round(float64(totalWordLength)/float64(len(words))*100) / 100
	}

	return map[string]any{
		"character_count":           utf8.RuneCountInString(text),
		"character_count_no_spaces": utf8.RuneCountInString(strings.ReplaceAll(text, " ", "")),
		"word_count":                len(words),
		"line_count":                countLines(text),
		"unique_words":              len(unique),
		"average_word_length":       averageWordLength,
		"sentence_count":            countSentences(text),
	}, nil
}

func countLines(text string) int {
	n := strings.Count(text, "\n")
	if strings.HasSuffix(text, "\n") {
		return n
	}
	return n + 1
}

// countSentences counts runs of sentence-ending punctuation; text with
// none still counts as one sentence unless it is blank.
func countSentences(text string) int {
	endings := sentencePattern.FindAllString(text, -1)
	if len(endings) > 0 {
		return len(endings)
	}
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return 1
}
