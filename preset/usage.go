package preset

import (
	"cmp"
	"maps"
	"slices"
	"time"
)

// Usage is the tracked invocation history of one preset.
type Usage struct {
	UsageCount int    `json:"usageCount"`
	LastUsedAt string `json:"lastUsedAt"`
}

// UsageStats maps preset id to its usage.
type UsageStats map[string]Usage

// Track counts one use of id at now.
func Track(stats UsageStats, id string, now time.Time) UsageStats {
	out := maps.Clone(stats)
	if out == nil {
		out = UsageStats{}
	}
	u := out[id]
	u.UsageCount++
	u.LastUsedAt = now.UTC().Format(time.RFC3339Nano)
	out[id] = u
	return out
}

// PruneUsage drops stats for ids absent from the collection.
func PruneUsage(stats UsageStats, c []Record) UsageStats {
	live := make(map[string]bool, len(c))
	for _, r := range c {
		live[r.ID] = true
	}
	out := make(UsageStats, len(stats))
	for id, u := range stats {
		if live[id] {
			out[id] = u
		}
	}
	return out
}

// annotate returns copies of c carrying their usage numbers.
func annotate(c []Record, stats UsageStats) []Record {
	out := make([]Record, len(c))
	for i, r := range c {
		r = r.clone()
		u := stats[r.ID]
		r.UsageCount = u.UsageCount
		r.LastUsedAt = u.LastUsedAt
		out[i] = r
	}
	return out
}

// MostUsed returns up to limit records, highest usage first. Ties keep
// collection order.
func MostUsed(c []Record, stats UsageStats, limit int) []Record {
	if limit <= 0 {
		return []Record{}
	}
	out := annotate(c, stats)
	slices.SortStableFunc(out, func(a, b Record) int {
		return cmp.Compare(b.UsageCount, a.UsageCount)
	})
	return out[:min(limit, len(out))]
}

// RecentlyUsed returns up to limit records that have been used, most recent
// first. Ties keep collection order.
func RecentlyUsed(c []Record, stats UsageStats, limit int) []Record {
	if limit <= 0 {
		return []Record{}
	}
	used := make([]Record, 0, len(c))
	last := make(map[string]time.Time, len(c))
	for _, r := range annotate(c, stats) {
		t, err := time.Parse(time.RFC3339Nano, r.LastUsedAt)
		if err != nil {
			continue
		}
		last[r.ID] = t
		used = append(used, r)
	}
	slices.SortStableFunc(used, func(a, b Record) int {
		return last[b.ID].Compare(last[a.ID])
	})
	return used[:min(limit, len(used))]
}
