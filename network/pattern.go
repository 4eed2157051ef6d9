// Package network intercepts, stubs, blocks and records browser traffic.
package network

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned for URL patterns that are neither strings
// nor regular expressions.
var ErrInvalidPattern = errors.New("invalid url pattern")

// Pattern matches request URLs. It is built from a string, which may be a
// literal URL or path or a glob, or from a *regexp.Regexp.
type Pattern struct {
	source  string
	re      *regexp.Regexp
	literal string
}

// ParsePattern builds a pattern. Strings that do not start with a scheme or
// a wildcard are resolved against baseURL, so "/api/users" matches
// "http://localhost:3000/api/users".
//
// Glob syntax: "*" matches within one path segment, "**" matches across
// segments, "{a,b}" matches either alternative. Everything else is literal.
// A pattern without glob characters matches the URL with or without its
// query string.
func ParsePattern(p any, baseURL string) (Pattern, error) {
	switch v := p.(type) {
	case Pattern:
		return v, nil
	case *regexp.Regexp:
		if v == nil {
			return Pattern{}, fmt.Errorf("%w: nil regexp", ErrInvalidPattern)
		}
		return Pattern{source: v.String(), re: v}, nil
	case string:
		if v == "" {
			return Pattern{}, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
		}
		resolved := resolve(v, baseURL)
		if !hasGlob(resolved) {
			return Pattern{source: v, literal: resolved}, nil
		}
		re, err := globToRegexp(resolved)
		if err != nil {
			return Pattern{}, err
		}
		return Pattern{source: v, re: re}, nil
	default:
		return Pattern{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidPattern, p)
	}
}

// MustParsePattern is ParsePattern that panics on error.
func MustParsePattern(p any, baseURL string) Pattern {
	pattern, err := ParsePattern(p, baseURL)
	if err != nil {
		panic(err)
	}
	return pattern
}

// Match reports whether rawURL matches the pattern.
func (p Pattern) Match(rawURL string) bool {
	if p.re != nil {
		return p.re.MatchString(rawURL)
	}
	if rawURL == p.literal {
		return true
	}
	withoutQuery, _, _ := strings.Cut(rawURL, "?")
	withoutQuery, _, _ = strings.Cut(withoutQuery, "#")
	return withoutQuery == p.literal
}

func (p Pattern) String() string {
	return p.source
}

func hasGlob(s string) bool {
	return strings.ContainsAny(s, "*{")
}

func resolve(pattern, baseURL string) string {
	if baseURL == "" || strings.HasPrefix(pattern, "*") || strings.Contains(pattern, "://") {
		return pattern
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" {
		return pattern
	}
	origin := base.Scheme + "://" + base.Host
	if strings.HasPrefix(pattern, "/") {
		return origin + pattern
	}
	dir := base.Path
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i+1]
	} else {
		dir = "/"
	}
	return origin + dir + pattern
}

func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	inGroup := false
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch {
		case c == '*' && i+1 < len(glob) && glob[i+1] == '*':
			b.WriteString(".*")
			i++
		case c == '*':
			b.WriteString("[^/]*")
		case c == '{' && !inGroup:
			inGroup = true
			b.WriteString("(?:")
		case c == '}' && inGroup:
			inGroup = false
			b.WriteString(")")
		case c == ',' && inGroup:
			b.WriteString("|")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	if inGroup {
		return nil, fmt.Errorf("%w: unterminated group in %q", ErrInvalidPattern, glob)
	}

	b.WriteString("$")
	return regexp.Compile(b.String())
}
