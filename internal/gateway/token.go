package gateway

import "regexp"

// TokenExtractor mines the request token out of the site's frontend script.
type TokenExtractor interface {
	Extract(script string) (token string, ok bool)
}

// DefaultTokenPattern matches `"x-funds-nonce": "<hex>"` in either quote style.
var DefaultTokenPattern = regexp.MustCompile(`["']x-funds-nonce["']\s*:\s*["']([a-f0-9]+)["']`)

// RegexpTokenExtractor returns the first capture group of Pattern.
type RegexpTokenExtractor struct {
	Pattern *regexp.Regexp
}

// NewRegexpTokenExtractor uses DefaultTokenPattern.
func NewRegexpTokenExtractor() RegexpTokenExtractor {
	return RegexpTokenExtractor{Pattern: DefaultTokenPattern}
}

// Extract implements TokenExtractor.
func (x RegexpTokenExtractor) Extract(script string) (string, bool) {
	pattern := x.Pattern
	if pattern == nil {
		pattern = DefaultTokenPattern
	}
	m := pattern.FindStringSubmatch(script)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}
