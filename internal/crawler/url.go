package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// ResolveURL resolves ref against base the way a browser would and drops the
// fragment. An empty ref resolves to "".
func ResolveURL(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference url: %w", err)
	}
	resolved := baseURL.ResolveReference(refURL)
	resolved.Fragment = ""
	return resolved.String(), nil
}

// PageURL returns the listing URL for a 1-based page number: the base URL
// itself for page 1, base?p=N afterwards.
func PageURL(base string, page int) (string, error) {
	if page <= 1 {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	q := u.Query()
	q.Set("p", fmt.Sprint(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
