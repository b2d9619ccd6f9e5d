package crawler

import (
	"net/url"
	"path"
	"strings"
)

// patterns are glob path patterns deciding which links are followed.
type patterns struct {
	// ignore lists paths that are never followed.
	ignore []string
	// follow, when non-empty, lists the only paths that are followed.
	follow []string
}

// linkPolicy decides which discovered links enter the frontier.
// Seeds bypass it.
type linkPolicy struct {
	sameHost  bool
	seedHosts map[string]bool

	global patterns
	// perHost overrides global for a lowercased hostname.
	perHost map[string]patterns
}

// allow reports whether a normalized link should be offered.
func (p *linkPolicy) allow(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())

	if p.sameHost && !p.seedHosts[host] {
		return false
	}

	pats := p.global
	if hp, ok := p.perHost[host]; ok {
		pats = hp
	}
	return pats.allowPath(u.Path)
}

// allowPath applies the patterns to a URL path.
//
// Logic:
//  1. If the path matches any ignore pattern, skip it
//  2. If follow patterns are set and the path matches none, skip it
//  3. Otherwise, follow it
func (p patterns) allowPath(urlPath string) bool {
	if urlPath == "" {
		urlPath = "/"
	}

	for _, pattern := range p.ignore {
		if matchPattern(pattern, urlPath) {
			return false
		}
	}

	if len(p.follow) == 0 {
		return true
	}
	for _, pattern := range p.follow {
		if matchPattern(pattern, urlPath) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing "/*" to match everything under a directory
//   - a leading "*." to match a file extension at any depth
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard" and "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, urlPath string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(urlPath, prefix+"/") || urlPath == prefix {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(urlPath, ext) {
			return true
		}
	}

	// path.Match has no "**"; single-segment globs are enough here.
	if matched, err := path.Match(pattern, urlPath); err == nil && matched {
		return true
	}

	// Patterns without a slash also apply to the last path segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(urlPath)); err == nil && matched {
			return true
		}
	}
	return false
}
