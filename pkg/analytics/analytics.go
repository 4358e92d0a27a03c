// Package analytics computes engagement and popularity statistics over all
// stored sessions. Computation is read-only and reflects the local store's
// current contents on every call; the remote mirror is never consulted.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
	"github.com/anshul-jain-devx108/shopmind/pkg/store"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

// topTermCount bounds the popular search term ranking.
const topTermCount = 10

// minTokenLength discards filler words ("a", "me", "to") from term counts.
const minTokenLength = 3

// Engine computes analytics over the local store.
type Engine struct {
	store *store.Store
}

// NewEngine creates an analytics engine over the given store.
func NewEngine(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Compute folds every stored session into an Analytics report. Sessions whose
// stored bodies are unreadable are skipped; averages over empty input sets
// are zero, never an error.
func (e *Engine) Compute() (types.Analytics, error) {
	index, err := e.store.ListIndex()
	if err != nil {
		return types.Analytics{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	var (
		totalMessages     int
		totalInteractions int
		completedSessions int
		completedMinutes  float64
	)
	termCounts := newCounter()
	categoryCounts := newCounter()

	for _, entry := range index {
		session, err := e.store.Load(entry.SessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logger.Warn("Skipping unreadable session %s in analytics", entry.SessionID)
				continue
			}
			return types.Analytics{}, fmt.Errorf("failed to load session %s: %w", entry.SessionID, err)
		}

		totalMessages += session.Metadata.MessageCount
		totalInteractions += session.Metadata.ProductInteractions

		if session.EndTime != nil {
			completedSessions++
			completedMinutes += session.EndTime.Sub(session.StartTime).Minutes()
		}

		for _, query := range session.Metadata.SearchQueries {
			for _, token := range tokenize(query) {
				termCounts.add(token)
			}
		}
		for _, category := range session.Metadata.Categories {
			categoryCounts.add(category)
		}
	}

	totalSessions := len(index)

	report := types.Analytics{
		TotalSessions:      totalSessions,
		TotalMessages:      totalMessages,
		PopularSearchTerms: termRanking(termCounts, topTermCount),
		PopularCategories:  categoryRanking(categoryCounts),
	}

	if completedSessions > 0 {
		report.AverageSessionLength = completedMinutes / float64(completedSessions)
	}
	if totalSessions > 0 {
		report.UserEngagement.AverageMessagesPerSession = float64(totalMessages) / float64(totalSessions)
	}
	report.UserEngagement.AverageSessionDuration = report.AverageSessionLength
	if totalMessages > 0 {
		report.UserEngagement.ProductClickRate = float64(totalInteractions) / float64(totalMessages) * 100
	}

	return report, nil
}

// tokenize splits a recorded search query into countable terms: whitespace
// split, lower-cased, short tokens dropped. Length is counted in runes so
// multi-byte scripts are filtered the same as ASCII.
func tokenize(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(field) >= minTokenLength {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// counter counts keys while remembering first-encounter order, so rankings
// can break count ties by first appearance.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// ranked returns keys sorted by descending count; equal counts keep
// first-encounter order (stable sort over insertion order).
func (c *counter) ranked() []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	return keys
}

func termRanking(c *counter, limit int) []types.TermCount {
	keys := c.ranked()
	if len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]types.TermCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.TermCount{Term: k, Count: c.counts[k]})
	}
	return out
}

func categoryRanking(c *counter) []types.CategoryCount {
	keys := c.ranked()
	out := make([]types.CategoryCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.CategoryCount{Category: k, Count: c.counts[k]})
	}
	return out
}
