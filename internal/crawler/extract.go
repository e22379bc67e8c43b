package crawler

import "regexp"

// hrefPattern matches href attributes with either quote style. Links
// inside comments or with exotic quoting are missed; the frontier
// dedupes anything the pattern over-matches.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*['"]([^'"]+)['"]`)

// ExtractLinks scans an HTML body for href attributes, resolves each
// against the page URL, and returns the absolute links in textual order.
// Unresolvable and mailto:/javascript: links are dropped.
func ExtractLinks(body []byte, baseURL string) []string {
	matches := hrefPattern.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		absolute := MakeAbsolute(baseURL, string(m[1]))
		if absolute != "" {
			links = append(links, absolute)
		}
	}
	return links
}
