package crew

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Interpolate replaces {key} placeholders in template with values from inputs.
// A placeholder with no matching input fails with ErrMissingInput. Braces that
// do not wrap an identifier, such as JSON snippets, are left alone.
func Interpolate(template string, inputs map[string]string) (string, error) {
	var missing []string
	seen := make(map[string]bool)

	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := inputs[key]; ok {
			return v
		}
		if !seen[key] {
			seen[key] = true
			missing = append(missing, key)
		}
		return m
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return out, nil
}

// Placeholders returns the distinct placeholder names in template, in order of
// first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
