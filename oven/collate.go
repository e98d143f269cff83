package oven

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collatorCache supplies locale-aware collators for sort-by/group-by key
// comparison (§4.9), playing the role the original gets for free from
// lxml's locale-aware xpath/Python's locale module. Collators are cached
// per tag since constructing one is not free and the same lang= shows up
// repeatedly across a document's sort-by declarations.
type collatorCache struct {
	mu    sync.Mutex
	byTag map[string]*collate.Collator
}

func newCollatorCache() *collatorCache {
	return &collatorCache{byTag: make(map[string]*collate.Collator)}
}

func (c *collatorCache) get(lang string) *collate.Collator {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col, ok := c.byTag[lang]; ok {
		return col
	}
	tag := language.Und
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			tag = t
		}
	}
	col := collate.New(tag)
	c.byTag[lang] = col
	return col
}

// compareKeys orders a < b under lang's collation rules, falling back to
// the root collation when lang is empty or unrecognized.
func (c *collatorCache) compareKeys(lang, a, b string) int {
	return c.get(lang).CompareString(a, b)
}
