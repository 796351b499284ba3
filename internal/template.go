package internal

import (
	"regexp"
	"strings"
)

// Prompt context keys understood by the default prompt script
const (
	VarHistory   = "history"
	VarUserInput = "user_input"
	VarUsername  = "username"
	VarContext   = "context"
)

var placeholderPattern = regexp.MustCompile(`\$(?:(\w+)|\{(\w+)\})`)

// Vars is the context bag for Render. A nil value marks a placeholder as null:
// the template line carrying it is left out of the prompt.
type Vars map[string]*string

// Text wraps a string as a Vars value
func Text(s string) *string {
	return &s
}

// Placeholders returns the distinct placeholder names in a template, in order of first use
func Placeholders(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		name := placeholderName(m)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Render substitutes the placeholders that appear in both the template and vars.
// Unknown placeholders are left as they are; nothing else in the template changes.
func Render(template string, vars Vars) string {
	subs := make(Vars)
	for _, name := range Placeholders(template) {
		if v, ok := vars[name]; ok {
			subs[name] = v
		}
	}
	if len(subs) == 0 {
		return template
	}

	var b strings.Builder
	for _, line := range strings.SplitAfter(template, "\n") {
		if carriesNull(line, subs) {
			continue
		}
		b.WriteString(placeholderPattern.ReplaceAllStringFunc(line, func(match string) string {
			v, ok := subs[placeholderName(placeholderPattern.FindStringSubmatch(match))]
			if !ok {
				return match
			}
			return *v
		}))
	}
	return b.String()
}

func carriesNull(line string, subs Vars) bool {
	for _, m := range placeholderPattern.FindAllStringSubmatch(line, -1) {
		if v, ok := subs[placeholderName(m)]; ok && v == nil {
			return true
		}
	}
	return false
}

func placeholderName(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
