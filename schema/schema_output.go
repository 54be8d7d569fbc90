package schema

import (
	"sort"

	"github.com/samber/lo"
)

// AssistantShare is one row of an assistant breakdown with its share of AI commits.
type AssistantShare struct {
	Assistant Assistant `json:"assistant"`
	Commits   int       `json:"commits"`
	Share     float64   `json:"share"`
}

// SortedBreakdown orders a breakdown by commit count, ties broken by priority order.
func SortedBreakdown(stats UsageStats) []AssistantShare {
	priority := make(map[Assistant]int, len(AllAssistants))
	for i, a := range AllAssistants {
		priority[a] = i
	}
	keys := lo.Keys(stats.AssistantBreakdown)
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := stats.AssistantBreakdown[keys[i]], stats.AssistantBreakdown[keys[j]]
		if ci != cj {
			return ci > cj
		}
		return priority[keys[i]] < priority[keys[j]]
	})
	return lo.Map(keys, func(a Assistant, _ int) AssistantShare {
		count := stats.AssistantBreakdown[a]
		return AssistantShare{
			Assistant: a,
			Commits:   count,
			Share:     Percentage(count, stats.AIAssistedCommits),
		}
	})
}
