package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCache(capacity int) (*Cache, *time.Time) {
	c := New(capacity, DefaultTTL)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGet_RoundTrip(t *testing.T) {
	c, _ := newTestCache(10)
	in := Entry{Response: "answer", Confidence: 0.85, Source: "direct"}
	c.Put("Dự án của bạn?", "projects", in)

	got, kind := c.Get("dự án của bạn?", "projects")
	require.NotNil(t, got)
	require.Equal(t, HitExact, kind)
	require.Equal(t, in, *got)
}

func TestGet_KeyIsDiacriticInsensitive(t *testing.T) {
	c, _ := newTestCache(10)
	c.Put("Dự Án", "projects", Entry{Response: "r"})

	got, kind := c.Get("du an", "projects")
	require.NotNil(t, got)
	require.Equal(t, HitExact, kind)
}

func TestGet_MissOnDifferentIntent(t *testing.T) {
	c, _ := newTestCache(10)
	c.Put("du an", "projects", Entry{Response: "r"})

	got, _ := c.Get("du an", "skills")
	require.Nil(t, got)
}

func TestGet_ExpiredEntryIsPurged(t *testing.T) {
	c, now := newTestCache(10)
	c.Put("du an", "projects", Entry{Response: "r"})

	*now = now.Add(DefaultTTL + time.Second)
	got, _ := c.Get("du an", "projects")
	require.Nil(t, got)
	require.Equal(t, 0, c.Stats().Size)
}

func TestGet_EntryAliveJustUnderTTL(t *testing.T) {
	c, now := newTestCache(10)
	c.Put("du an", "projects", Entry{Response: "r"})

	*now = now.Add(DefaultTTL - time.Second)
	got, _ := c.Get("du an", "projects")
	require.NotNil(t, got)
}

func TestGet_SimilarHitAtThreshold(t *testing.T) {
	c, _ := newTestCache(10)
	c.Put("alpha beta gamma delta epsilon", "projects", Entry{Response: "r", Confidence: 1.0, Source: "direct"})

	// 4 shared words out of a 5-word union: Jaccard exactly 0.8.
	got, kind := c.Get("alpha beta gamma delta", "projects")
	require.NotNil(t, got)
	require.Equal(t, HitSimilar, kind)
	require.Equal(t, "r", got.Response)
	require.InDelta(t, 0.9, got.Confidence, 1e-9)
}

func TestGet_SimilarMissBelowThreshold(t *testing.T) {
	c, _ := newTestCache(10)
	c.Put("alpha beta gamma delta", "projects", Entry{Response: "r"})

	// 3 shared words out of a 4-word union: 0.75, under the threshold.
	got, _ := c.Get("alpha beta gamma", "projects")
	require.Nil(t, got)
}

func TestGet_SimilarHitScalesStoredConfidence(t *testing.T) {
	c, _ := newTestCache(10)
	c.Put("mot hai ba bon nam", "skills", Entry{Response: "r", Confidence: 0.8})

	got, kind := c.Get("mot hai ba bon", "skills")
	require.NotNil(t, got)
	require.Equal(t, HitSimilar, kind)
	require.InDelta(t, 0.72, got.Confidence, 1e-9)
}

func TestPut_OverwritesExistingKey(t *testing.T) {
	c, _ := newTestCache(10)
	c.Put("du an", "projects", Entry{Response: "old"})
	c.Put("du an", "projects", Entry{Response: "new"})

	got, _ := c.Get("du an", "projects")
	require.NotNil(t, got)
	require.Equal(t, "new", got.Response)
	require.Equal(t, 1, c.Stats().Size)
}

func TestPut_EvictsOldestFifthAtCapacity(t *testing.T) {
	c, now := newTestCache(10)
	for i := 0; i < 10; i++ {
		c.Put(fmt.Sprintf("query %d x y z", i), "projects", Entry{Response: "r"})
		*now = now.Add(time.Second)
	}
	require.Equal(t, 10, c.Stats().Size)

	c.Put("one more query entirely", "projects", Entry{Response: "r"})

	stats := c.Stats()
	require.Equal(t, 9, stats.Size) // 2 evicted, 1 inserted
	require.Equal(t, int64(2), stats.Evictions)

	// The two oldest entries are gone.
	got, _ := c.Get("query 0 x y z", "projects")
	require.Nil(t, got)
	got, _ = c.Get("query 9 x y z", "projects")
	require.NotNil(t, got)
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(10)
	c.Put("du an", "projects", Entry{Response: "r"})
	c.Clear()
	require.Equal(t, 0, c.Stats().Size)
}

func TestStats_Counters(t *testing.T) {
	c, _ := newTestCache(10)
	c.Put("alpha beta gamma delta epsilon", "projects", Entry{Response: "r"})

	c.Get("alpha beta gamma delta epsilon", "projects") // exact
	c.Get("alpha beta gamma delta", "projects")         // similar
	c.Get("unrelated words here", "projects")           // miss

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Similar)
	require.Equal(t, int64(1), stats.Misses)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(50, DefaultTTL)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				q := fmt.Sprintf("worker %d query %d", n, j)
				c.Put(q, "projects", Entry{Response: "r"})
				c.Get(q, "projects")
			}
		}(i)
	}
	wg.Wait()
}
