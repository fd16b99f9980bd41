// Package redact replaces secrets in signal documents with [REDACTED]
// before they are embedded in a prompt.
package redact

import "regexp"

const placeholder = "[REDACTED]"

var patterns = []*regexp.Regexp{
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Google API keys (the classifier's own credential family)
	regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
	// GitHub tokens: classic, fine-grained, app and OAuth
	regexp.MustCompile(`(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{36,}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`),
	// Anthropic and OpenAI keys
	regexp.MustCompile(`sk-(?:ant-)?[A-Za-z0-9\-_]{20,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`),
	// Bearer tokens
	regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
	// Webhook signatures
	regexp.MustCompile(`sha256=[0-9a-f]{64}`),
	// Generic key/secret/token/password assignments, including JSON "key": "value"
	regexp.MustCompile(`(?i)"?(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|credentials)"?\s*[:=]\s*"?[^\s",}]+"?`),
}

// Redact replaces secret patterns in text with [REDACTED].
func Redact(text string) string {
	out, _ := Count(text)
	return out
}

// Count is Redact that also reports how many matches were replaced.
func Count(text string) (string, int) {
	n := 0
	for _, p := range patterns {
		text = p.ReplaceAllStringFunc(text, func(string) string {
			n++
			return placeholder
		})
	}
	return text, n
}
