package report

import "sort"

// TopEvent is one ranked event name with its occurrence count.
type TopEvent struct {
	Event string `json:"event"`
	Count int64  `json:"count"`
}

// RankTopEvents counts occurrences per event name and returns the limit most
// frequent, descending by count. Ties keep the order in which names were
// first seen in the input; rankings must be reproducible across runs.
func RankTopEvents(names []string, limit int) []TopEvent {
	if len(names) == 0 || limit <= 0 {
		return []TopEvent{}
	}

	counts := make(map[string]int64, len(names))
	order := make([]string, 0, len(names))
	for _, name := range names {
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	ranked := make([]TopEvent, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, TopEvent{Event: name, Count: counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
