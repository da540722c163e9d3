package summary

import (
	"sort"

	"github.com/glassd/unqork-audit-logs/internal/cache"
)

// Count is one key's occurrence count.
type Count struct {
	Key string
	N   int
}

// Summary holds aggregate statistics over a set of entries. All count
// slices are ordered most frequent first, ties broken by key, so
// output is deterministic.
type Summary struct {
	TotalEvents    int
	FirstTimestamp string
	LastTimestamp  string

	Success int
	Failure int

	Categories     []Count
	Actions        []Count
	Actors         []Count
	Outcomes       []Count
	Sources        []Count
	ClientIPs      []Count
	FailureActions []Count
}

// SuccessRate returns the success percentage of all events, 0 for an
// empty set.
func (s Summary) SuccessRate() float64 {
	if s.TotalEvents == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.TotalEvents) * 100
}

// Compute aggregates entries into a Summary. Entries with an empty
// category, action, actor, outcome or source count under "unknown";
// empty client IPs are not counted at all.
func Compute(entries []cache.Entry) Summary {
	s := Summary{TotalEvents: len(entries)}

	categories := map[string]int{}
	actions := map[string]int{}
	actors := map[string]int{}
	outcomes := map[string]int{}
	sources := map[string]int{}
	ips := map[string]int{}
	failureActions := map[string]int{}

	for _, e := range entries {
		categories[orUnknown(e.Category)]++
		actions[orUnknown(e.Action)]++
		actors[orUnknown(e.ActorID)]++
		outcomes[orUnknown(e.OutcomeType)]++
		sources[orUnknown(e.Source)]++

		if e.ClientIP != "" {
			ips[e.ClientIP]++
		}

		if ts := e.Timestamp; ts != "" {
			if s.FirstTimestamp == "" || ts < s.FirstTimestamp {
				s.FirstTimestamp = ts
			}
			if ts > s.LastTimestamp {
				s.LastTimestamp = ts
			}
		}

		switch e.OutcomeType {
		case "success":
			s.Success++
		case "failure":
			s.Failure++
			failureActions[orUnknown(e.Action)]++
		}
	}

	s.Categories = mostCommon(categories)
	s.Actions = mostCommon(actions)
	s.Actors = mostCommon(actors)
	s.Outcomes = mostCommon(outcomes)
	s.Sources = mostCommon(sources)
	s.ClientIPs = mostCommon(ips)
	s.FailureActions = mostCommon(failureActions)
	return s
}

// Top returns at most n leading counts.
func Top(counts []Count, n int) []Count {
	if len(counts) <= n {
		return counts
	}
	return counts[:n]
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func mostCommon(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for k, n := range m {
		counts = append(counts, Count{Key: k, N: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].N != counts[j].N {
			return counts[i].N > counts[j].N
		}
		return counts[i].Key < counts[j].Key
	})
	return counts
}
