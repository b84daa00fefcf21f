package preview

import "os"

// cacheKey ties a cached preview to the file state it was built from; a
// touched or rewritten file misses and rebuilds.
type cacheKey struct {
	path  string
	mtime int64
	size  int64
}

// cache keeps the most recent previews with FIFO eviction.
type cache struct {
	limit int
	order []cacheKey
	m     map[cacheKey]Result
}

func newCache(limit int) *cache {
	if limit <= 0 {
		limit = 100
	}
	return &cache{limit: limit, m: make(map[cacheKey]Result, limit)}
}

func keyFor(path string) (cacheKey, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return cacheKey{}, false
	}
	return cacheKey{path: path, mtime: info.ModTime().UnixNano(), size: info.Size()}, true
}

// get returns a hit re-tagged with the request's tab and token.
func (c *cache) get(req Request) (Result, bool) {
	k, ok := keyFor(req.Path)
	if !ok {
		return Result{}, false
	}
	res, ok := c.m[k]
	if !ok {
		return Result{}, false
	}
	res.Tab = req.Tab
	res.Gen = req.Gen
	return res, true
}

func (c *cache) put(req Request, res Result) {
	k, ok := keyFor(req.Path)
	if !ok {
		return
	}
	if _, exists := c.m[k]; exists {
		c.m[k] = res
		return
	}
	if len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.m, oldest)
	}
	c.order = append(c.order, k)
	c.m[k] = res
}

func (c *cache) len() int { return len(c.m) }
