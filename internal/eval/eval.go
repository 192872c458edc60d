// Package eval evaluates condition expressions against a chain's input
// and prior node results. The grammar is deliberately closed: comparison,
// boolean and arithmetic operators over literals and lookups rooted at
// input/results. No functions are exposed, no other names resolve, and
// nothing in an expression can reach the host process.
package eval

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// Evaluator compiles and runs condition expressions.
type Evaluator struct{}

// New creates an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

var (
	accessorChainPattern = regexp.MustCompile(`\b(input|results)((?:\[\s*'[^']*'\s*\]|\[\s*"[^"]*"\s*\]|\[\d+\]|\.[A-Za-z_][A-Za-z0-9_]*)*)`)
	accessorTokenPattern = regexp.MustCompile(`\[\s*'[^']*'\s*\]|\[\s*"[^"]*"\s*\]|\[\d+\]|\.[A-Za-z_][A-Za-z0-9_]*`)
)

var wordOperators = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\band\b`), "&&"},
	{regexp.MustCompile(`\bor\b`), "||"},
	{regexp.MustCompile(`\bnot\b`), "!"},
	{regexp.MustCompile(`\bTrue\b`), "true"},
	{regexp.MustCompile(`\bFalse\b`), "false"},
}

// Evaluate runs one expression. Accessor chains rooted at input/results,
// in bracket ( input['x'] ), dot ( input.x ) or index ( input['xs'][0] )
// form, are resolved up front and bound as flat variables; the rewritten
// expression is then handed to the expression engine. A lookup that
// cannot be resolved fails the evaluation rather than defaulting.
func (e *Evaluator) Evaluate(expr string, input, results map[string]any) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("empty condition expression")
	}

	roots := map[string]any{"input": input, "results": results}
	variables := make(map[string]any)
	var resolveErr error

	rewritten := rewriteOutsideStrings(expr, func(segment string) string {
		segment = accessorChainPattern.ReplaceAllStringFunc(segment, func(matched string) string {
			if resolveErr != nil {
				return matched
			}
			sub := accessorChainPattern.FindStringSubmatch(matched)
			value, err := resolveChain(roots[sub[1]], sub[2])
			if err != nil {
				resolveErr = fmt.Errorf("%s: %w", matched, err)
				return matched
			}
			name := fmt.Sprintf("v%d", len(variables))
			variables[name] = normalizeValue(value)
			return name
		})
		return replaceWordOperators(segment)
	})
	if resolveErr != nil {
		return nil, resolveErr
	}

	parsed, err := govaluate.NewEvaluableExpression(rewritten)
	if err != nil {
		return nil, fmt.Errorf("parse condition: %w", err)
	}

	out, err := parsed.Evaluate(variables)
	if err != nil {
		return nil, fmt.Errorf("evaluate condition: %w", err)
	}
	return out, nil
}

// rewriteOutsideStrings applies fn to the parts of expr that are not
// string literals. Literals pass through re-quoted with single quotes,
// the form the expression engine accepts.
func rewriteOutsideStrings(expr string, fn func(string) string) string {
	var b strings.Builder
	runes := []rune(expr)
	start := 0
	i := 0
	for i < len(runes) {
		ch := runes[i]
		if ch == '\'' || ch == '"' {
			b.WriteString(fn(string(runes[start:i])))
			j := i + 1
			for j < len(runes) && runes[j] != ch {
				j++
			}
			b.WriteString("'")
			b.WriteString(string(runes[i+1 : j]))
			b.WriteString("'")
			if j < len(runes) {
				j++
			}
			i, start = j, j
			continue
		}
		i++
	}
	b.WriteString(fn(string(runes[start:])))
	return b.String()
}

func replaceWordOperators(segment string) string {
	for _, op := range wordOperators {
		segment = op.pattern.ReplaceAllString(segment, op.replacement)
	}
	return segment
}

func resolveChain(root any, accessors string) (any, error) {
	value := root
	for _, token := range accessorTokenPattern.FindAllString(accessors, -1) {
		var err error
		switch {
		case strings.HasPrefix(token, "."):
			value, err = lookupField(value, token[1:])
		default:
			inner := strings.TrimSpace(token[1 : len(token)-1])
			if strings.HasPrefix(inner, "'") || strings.HasPrefix(inner, `"`) {
				value, err = lookupField(value, inner[1:len(inner)-1])
			} else {
				var idx int
				idx, err = strconv.Atoi(inner)
				if err == nil {
					value, err = lookupIndex(value, idx)
				}
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

func lookupField(value any, key string) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot index %T with key %q", value, key)
	}
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found", key)
	}
	return v, nil
}

func lookupIndex(value any, idx int) (any, error) {
	arr, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("cannot index %T with position %d", value, idx)
	}
	if idx < 0 || idx >= len(arr) {
		return nil, fmt.Errorf("index %d out of range (len %d)", idx, len(arr))
	}
	return arr[idx], nil
}

// normalizeValue converts numeric bindings to float64, the only numeric
// representation the expression engine computes with.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// Truthy reports the boolean weight of an evaluation result: booleans as
// themselves, numbers against zero, strings and collections by emptiness.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}
