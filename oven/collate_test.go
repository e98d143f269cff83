package oven

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareKeysOrdering(t *testing.T) {
	c := newCollatorCache()
	require.Less(t, c.compareKeys("en", "apple", "banana"), 0)
	require.Greater(t, c.compareKeys("en", "banana", "apple"), 0)
	require.Equal(t, 0, c.compareKeys("en", "apple", "apple"))
}

func TestCompareKeysUnknownLangFallsBackToRoot(t *testing.T) {
	c := newCollatorCache()
	// an unparseable BCP47 tag must not panic and must still produce a
	// deterministic ordering via language.Und.
	require.Less(t, c.compareKeys("not-a-real-tag!!", "a", "b"), 0)
}

func TestCollatorCacheReusesCollator(t *testing.T) {
	c := newCollatorCache()
	first := c.get("fr")
	second := c.get("fr")
	require.Same(t, first, second)
}
