package pipeline

import (
	"cmp"
	"slices"
	"strconv"
)

// CountEntry is one key of an ordered count mapping with its share of the total.
type CountEntry struct {
	Key     string `json:"key"`
	Count   int    `json:"count"`
	Percent string `json:"percent"`
}

// counter tallies non-empty keys and remembers first-seen order so that
// equal counts sort deterministically.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if key == "" {
		return
	}
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) len() int {
	return len(c.order)
}

// entries returns keys sorted by count descending, ties in first-seen order.
// A limit <= 0 returns every key.
func (c *counter) entries(total, limit int) []CountEntry {
	out := make([]CountEntry, 0, len(c.order))
	for _, key := range c.order {
		n := c.counts[key]
		out = append(out, CountEntry{Key: key, Count: n, Percent: FormatPercent(n, total)})
	}
	slices.SortStableFunc(out, func(a, b CountEntry) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FormatPercent renders count/total*100 with one decimal, "0.0" when total is 0.
func FormatPercent(count, total int) string {
	if total <= 0 {
		return "0.0"
	}
	return strconv.FormatFloat(float64(count)/float64(total)*100, 'f', 1, 64)
}
