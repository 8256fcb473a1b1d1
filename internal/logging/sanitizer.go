package logging

import "regexp"

// namedPattern pairs a compiled secret pattern with a human name, so a
// Sanitizer built with AddPattern can still be inspected (PatternNames) for
// diagnostics without re-parsing regexp.Regexp.String() output.
type namedPattern struct {
	name string
	re   *regexp.Regexp
}

// Sanitizer redacts sensitive substrings (API keys, tokens, passwords) from
// log messages and attributes before they reach a handler.
type Sanitizer struct {
	patterns []namedPattern
	redacted string
}

// NewSanitizer builds a Sanitizer with the default credential patterns.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns(),
		redacted: "[REDACTED]",
	}
}

func defaultPatterns() []namedPattern {
	specs := []struct {
		name    string
		pattern string
	}{
		{"openai-key", `sk-[A-Za-z0-9]{20,}`},
		{"anthropic-key", `sk-ant-[a-zA-Z0-9-]{40,}`},
		{"google-ai-key", `AIza[a-zA-Z0-9_-]{35}`},
		{"github-pat", `ghp_[A-Za-z0-9]{36}`},
		{"github-oauth", `gho_[A-Za-z0-9]{36}`},
		{"github-app", `ghu_[A-Za-z0-9]{36}`},
		{"github-app-server", `ghs_[A-Za-z0-9]{36}`},
		{"aws-access-key", `AKIA[0-9A-Z]{16}`},
		{"aws-secret-key", `(?i)aws[_-]?secret[_-]?access[_-]?key["'\s:=]+[A-Za-z0-9/+=]{40}`},
		{"slack-token", `xox[baprs]-[0-9a-zA-Z-]{10,}`},
		{"bearer-token", `(?i)bearer\s+[a-zA-Z0-9._-]{20,}`},
		{"generic-api-key", `(?i)api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{20,}`},
		{"generic-secret", `(?i)secret["'\s:=]+[a-zA-Z0-9_-]{20,}`},
		{"generic-password", `(?i)password["'\s:=]+[^\s"']{8,}`},
		{"generic-token", `(?i)token["'\s:=]+[a-zA-Z0-9_-]{20,}`},
	}

	compiled := make([]namedPattern, 0, len(specs))
	for _, s := range specs {
		compiled = append(compiled, namedPattern{name: s.name, re: regexp.MustCompile(s.pattern)})
	}
	return compiled
}

// Sanitize redacts every match of every configured pattern in input.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, p := range s.patterns {
		result = p.re.ReplaceAllString(result, s.redacted)
	}
	return result
}

// SanitizeMap redacts string values in m, recursing into nested maps.
func (s *Sanitizer) SanitizeMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			result[k] = s.Sanitize(val)
		case map[string]interface{}:
			result[k] = s.SanitizeMap(val)
		default:
			result[k] = v
		}
	}
	return result
}

// AddPattern compiles and appends a custom redaction pattern under name.
func (s *Sanitizer) AddPattern(name, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, namedPattern{name: name, re: re})
	return nil
}

// PatternNames returns the names of every pattern this Sanitizer applies,
// in application order, for diagnostics.
func (s *Sanitizer) PatternNames() []string {
	names := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		names[i] = p.name
	}
	return names
}

// SetRedactedPlaceholder sets the text substituted for a redacted match.
func (s *Sanitizer) SetRedactedPlaceholder(placeholder string) {
	s.redacted = placeholder
}
