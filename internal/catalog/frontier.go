package catalog

// frontier is the FIFO of pending listing URLs plus the visited set.
// URLs are compared as exact strings.
type frontier struct {
	pending []string
	visited map[string]struct{}
}

func newFrontier(seed string) *frontier {
	f := &frontier{visited: make(map[string]struct{})}
	f.push(seed)
	return f
}

// push enqueues url unless it is empty or already visited.
func (f *frontier) push(url string) bool {
	if url == "" {
		return false
	}
	if _, seen := f.visited[url]; seen {
		return false
	}
	f.pending = append(f.pending, url)
	return true
}

// pop returns the oldest unvisited URL and marks it visited.
func (f *frontier) pop() (string, bool) {
	for len(f.pending) > 0 {
		url := f.pending[0]
		f.pending = f.pending[1:]
		if _, seen := f.visited[url]; seen {
			continue
		}
		f.visited[url] = struct{}{}
		return url, true
	}
	return "", false
}

// hasNext reports whether pop would return a URL.
func (f *frontier) hasNext() bool {
	for _, url := range f.pending {
		if _, seen := f.visited[url]; !seen {
			return true
		}
	}
	return false
}
