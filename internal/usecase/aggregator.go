package usecase

import (
	"sort"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-devstats/internal/domain"
)

// Aggregator is the use case for computing summary statistics over collected developers.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(logger *zap.Logger) *Aggregator {
	return &Aggregator{
		logger: logger,
	}
}

// Summarize computes the totals, averages and language ranking in a single pass.
// Repositories without a primary language are left out of the ranking only.
func (a *Aggregator) Summarize(developers []*domain.Developer) *domain.Summary {
	summary := &domain.Summary{
		TotalDevelopers: len(developers),
		Languages:       []domain.LanguageCount{},
	}

	followers := make(stats.Float64Data, 0, len(developers))
	languages := newCounter()
	for _, dev := range developers {
		followers = append(followers, float64(dev.Followers))
		summary.TotalRepositories += len(dev.Repositories)
		for _, repo := range dev.Repositories {
			summary.TotalStars += repo.Stars
			if repo.HasLanguage() {
				languages.add(repo.Language)
			}
		}
	}

	if summary.TotalDevelopers > 0 {
		summary.AvgReposPerDeveloper = float64(summary.TotalRepositories) / float64(summary.TotalDevelopers)
		summary.AvgFollowersPerDeveloper, _ = stats.Mean(followers)
	}
	for _, entry := range languages.ranked() {
		summary.Languages = append(summary.Languages, domain.LanguageCount{Language: entry.key, Repositories: entry.count})
	}

	a.logger.Info("aggregation complete",
		zap.Int("developers", summary.TotalDevelopers),
		zap.Int("repositories", summary.TotalRepositories),
		zap.Int("languages", len(summary.Languages)))
	return summary
}

type countEntry struct {
	key   string
	count int
}

// counter counts keys and remembers the order in which they were first seen.
type counter struct {
	index   map[string]int
	entries []countEntry
}

func newCounter() *counter {
	return &counter{index: make(map[string]int)}
}

func (c *counter) add(key string) {
	c.addN(key, 1)
}

func (c *counter) addN(key string, n int) {
	if i, ok := c.index[key]; ok {
		c.entries[i].count += n
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, countEntry{key: key, count: n})
}

// ranked returns the entries by descending count; equal counts keep first-seen order.
func (c *counter) ranked() []countEntry {
	out := make([]countEntry, len(c.entries))
	copy(out, c.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].count > out[j].count
	})
	return out
}

// topKeys returns at most n keys from the ranking.
func (c *counter) topKeys(n int) []string {
	keys := []string{}
	for _, e := range c.ranked() {
		if len(keys) == n {
			break
		}
		keys = append(keys, e.key)
	}
	return keys
}
