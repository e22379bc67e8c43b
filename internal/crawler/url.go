package crawler

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*)://([^/]+)(/.*)?$`)

// Parse splits a URL of the shape scheme://host[/path] into canonical
// parts. Scheme and host are lowercased; a missing path becomes "/".
// Anything else is rejected.
func Parse(rawURL string) (URLParts, bool) {
	m := urlPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return URLParts{}, false
	}
	parts := URLParts{
		Scheme: strings.ToLower(m[1]),
		Host:   strings.ToLower(m[2]),
		Path:   m[3],
	}
	if parts.Path == "" {
		parts.Path = "/"
	}
	return parts, true
}

// StripFragment truncates a URL at the first '#'.
func StripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// MakeAbsolute resolves an href found in a document against the page it
// came from and returns the canonical string, or "" when the href is
// empty, a mailto:/javascript: link, or the base cannot be parsed.
func MakeAbsolute(baseURL, href string) string {
	link := strings.TrimSpace(href)
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "mailto:") || strings.HasPrefix(link, "javascript:") {
		return ""
	}
	link = StripFragment(link)
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	if strings.HasPrefix(link, "//") {
		base, ok := Parse(baseURL)
		if !ok {
			return ""
		}
		return base.Scheme + ":" + link
	}
	base, ok := Parse(baseURL)
	if !ok {
		return ""
	}
	path := base.Path
	if strings.HasPrefix(link, "/") {
		path = link
	} else {
		slash := strings.LastIndexByte(path, '/')
		dir := "/"
		if slash >= 0 {
			dir = path[:slash+1]
		}
		path = dir + link
	}
	return base.Scheme + "://" + base.Host + path
}

// Extension returns the lowercase extension of the file part of the
// path, including the leading dot, with fragment and query removed.
// Empty when the last path segment has no dot.
func Extension(rawURL string) string {
	clean := StripFragment(rawURL)
	if parts, ok := Parse(clean); ok {
		clean = parts.Path
	}
	if i := strings.IndexByte(clean, '?'); i >= 0 {
		clean = clean[:i]
	}
	filename := clean
	if slash := strings.LastIndexByte(clean, '/'); slash >= 0 {
		filename = clean[slash+1:]
	}
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 {
		return ""
	}
	return strings.ToLower(filename[dot:])
}

// QueryIndicatesDownload reports whether the query string carries one of
// the download-intent markers the campus CMS emits for extension-less
// asset links. Detection does not bypass extension admission.
func QueryIndicatesDownload(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, "format=pdf") ||
		strings.Contains(lower, "format=doc") ||
		strings.Contains(lower, "download=1")
}
