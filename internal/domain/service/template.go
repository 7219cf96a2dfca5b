package service

import (
	"regexp"
	"strings"

	"github.com/agentdeck/agentdeck/pkg/errors"
)

// placeholderPattern matches {name}-style template variables. Names are
// word characters only; "{}" and brace pairs containing spaces or nested
// braces are left untouched.
var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Render substitutes every {key} placeholder in template with its value
// from vars. It fails with a MISSING_VARIABLE error when the template
// references a key absent from the mapping, so callers can reject a
// command before any external call is made. Pure and deterministic;
// mapping keys that the template never references are ignored.
func Render(template string, vars map[string]string) (string, error) {
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := vars[match[1]]; !ok {
			return "", errors.NewMissingVariableError(match[1])
		}
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		key := strings.Trim(placeholder, "{}")
		return vars[key]
	}), nil
}

// TemplateVariables lists the distinct placeholder names referenced by a
// template, in first-occurrence order.
func TemplateVariables(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}
