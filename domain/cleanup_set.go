package domain

// CleanupSet collects temporary artifact URIs of a single job in insertion order.
type CleanupSet struct {
	uris []string
	seen map[string]struct{}
}

func NewCleanupSet() *CleanupSet {
	return &CleanupSet{seen: make(map[string]struct{})}
}

func (c *CleanupSet) Add(uri string) {
	if uri == "" {
		return
	}
	if _, ok := c.seen[uri]; ok {
		return
	}
	c.seen[uri] = struct{}{}
	c.uris = append(c.uris, uri)
}

func (c *CleanupSet) Len() int {
	return len(c.uris)
}

// Drain returns the collected URIs and empties the set.
func (c *CleanupSet) Drain() []string {
	uris := c.uris
	c.uris = nil
	c.seen = make(map[string]struct{})
	return uris
}
