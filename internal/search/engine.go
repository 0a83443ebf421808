package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"voicetovision/internal/ideas"
	"voicetovision/internal/logging"
	"voicetovision/internal/sanitize"
)

// Result pairs an idea with its relevance score.
type Result struct {
	Idea  *ideas.Idea
	Score int
}

// Scoring tiers. Token overlap scales up to scoreOverlapMax.
const (
	scoreExact      = 100
	scorePrefix     = 80
	scoreSubstring  = 60
	scoreOverlapMax = 40
)

// Engine ranks ideas from the store's index. It holds no state of its own;
// every call recomputes against the current index.
type Engine struct {
	store  *ideas.Store
	logger *slog.Logger
}

func New(store *ideas.Store, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logging.NewComponentLogger(logger, "search"),
	}
}

// Search returns ideas matching the query ordered by score, ties broken by
// most recent creation. Filters exclude candidates before scoring. A zero
// score drops the candidate entirely.
func (e *Engine) Search(ctx context.Context, query string, filter ideas.Filter, limit int) ([]Result, error) {
	candidates, err := e.store.List(ctx, withoutLimit(filter))
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	results := make([]Result, 0, len(candidates))
	for _, idea := range candidates {
		score := scoreIdea(idea, needle)
		if score <= 0 {
			continue
		}
		results = append(results, Result{Idea: idea, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Idea.CreatedAt.After(results[j].Idea.CreatedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Suggest returns up to limit folder names whose sanitized form starts with
// the sanitized prefix, most recent first.
func (e *Engine) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	candidates, err := e.store.List(ctx, ideas.NewFilter())
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(sanitize.Name(prefix, sanitize.DefaultMaxLength))
	names := make([]string, 0, limit)
	for _, idea := range candidates {
		if !strings.HasPrefix(strings.ToLower(idea.FolderName), want) {
			continue
		}
		names = append(names, idea.FolderName)
		if limit > 0 && len(names) == limit {
			break
		}
	}
	return names, nil
}

func scoreIdea(idea *ideas.Idea, needle string) int {
	if needle == "" {
		return 0
	}

	folder := strings.ToLower(idea.FolderName)
	name := strings.ToLower(idea.Analysis.Name)

	if needle == folder || needle == name {
		return scoreExact
	}
	if strings.HasPrefix(folder, needle) || strings.HasPrefix(name, needle) {
		return scorePrefix
	}
	if strings.Contains(folder, needle) || strings.Contains(name, needle) {
		return scoreSubstring
	}
	for _, tag := range idea.Analysis.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return scoreSubstring
		}
	}

	return overlapScore(idea, needle)
}

// overlapScore measures how many query tokens appear in the tag set or
// summary, scaled into the lowest tier.
func overlapScore(idea *ideas.Idea, needle string) int {
	queryTokens := tokenize(needle)
	if len(queryTokens) == 0 {
		return 0
	}

	haystack := make(map[string]bool)
	for _, tag := range idea.Analysis.Tags {
		for _, tok := range tokenize(strings.ToLower(tag)) {
			haystack[tok] = true
		}
	}
	for _, tok := range tokenize(strings.ToLower(idea.Analysis.Summary)) {
		haystack[tok] = true
	}

	matched := 0
	for _, tok := range queryTokens {
		if haystack[tok] {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return scoreOverlapMax * matched / len(queryTokens)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}

func withoutLimit(filter ideas.Filter) ideas.Filter {
	filter.Limit = 0
	return filter
}
