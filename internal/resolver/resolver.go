// Package resolver decides whether a raw OCR name refers to an existing
// catalog entry and ranks catalog entries for a free-text query.
package resolver

import (
	"sort"
	"strings"

	"golang.org/x/text/width"

	"github.com/joseph-ayodele/groceries-db/constants"
	"github.com/joseph-ayodele/groceries-db/internal/entity"
	"github.com/joseph-ayodele/groceries-db/internal/similarity"
)

// Config tunes resolution. Zero values select the defaults.
type Config struct {
	// Threshold is the minimum score, on 0..100, for a match.
	Threshold float64
	// SuggestLimit caps Suggest results.
	SuggestLimit int
	// FoldWidth folds full- and half-width forms before scoring.
	FoldWidth bool
}

func DefaultConfig() Config {
	return Config{
		Threshold:    constants.DefaultMatchThreshold,
		SuggestLimit: constants.DefaultSuggestLimit,
	}
}

type Resolver struct {
	cfg    Config
	scorer similarity.Scorer
}

// New builds a Resolver. A nil scorer selects similarity.Default.
func New(cfg Config, scorer similarity.Scorer) *Resolver {
	if cfg.Threshold <= 0 {
		cfg.Threshold = constants.DefaultMatchThreshold
	}
	if cfg.SuggestLimit <= 0 {
		cfg.SuggestLimit = constants.DefaultSuggestLimit
	}
	if scorer == nil {
		scorer = similarity.Default
	}
	return &Resolver{cfg: cfg, scorer: scorer}
}

func (r *Resolver) Config() Config { return r.cfg }

// Resolve matches rawName against catalog.
//
// A nil or blank name cannot be scored and comes back as NewEntry carrying the raw
// value untouched. Otherwise the first candidate with the highest score wins
// if it reaches the threshold; catalog order breaks ties.
func (r *Resolver) Resolve(rawName *string, catalog []entity.NamedEntity) Resolution {
	if rawName == nil || strings.TrimSpace(*rawName) == "" {
		return NewEntry{Name: rawName}
	}
	trimmed := strings.TrimSpace(*rawName)
	if len(catalog) == 0 {
		return NewEntry{Name: &trimmed}
	}

	key := r.key(trimmed)
	bestIdx, bestScore := -1, -1.0
	for i, c := range catalog {
		if s := r.scorer.Score(key, r.key(c.Name)); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	if bestScore >= r.cfg.Threshold {
		best := catalog[bestIdx]
		return Matched{ID: best.ID, Name: best.Name, Score: bestScore}
	}
	return NewEntry{Name: &trimmed}
}

// Suggest ranks catalog against query and returns at most SuggestLimit
// entries, best first. No score cutoff applies; equal scores keep catalog order.
func (r *Resolver) Suggest(query string, catalog []entity.NamedEntity) []entity.NamedEntity {
	if len(catalog) == 0 {
		return []entity.NamedEntity{}
	}
	key := r.key(strings.TrimSpace(query))
	type scored struct {
		e     entity.NamedEntity
		score float64
	}
	ranked := make([]scored, len(catalog))
	for i, c := range catalog {
		ranked[i] = scored{e: c, score: r.scorer.Score(key, r.key(c.Name))}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := min(len(ranked), r.cfg.SuggestLimit)
	out := make([]entity.NamedEntity, n)
	for i := range out {
		out[i] = ranked[i].e
	}
	return out
}

func (r *Resolver) key(s string) string {
	if r.cfg.FoldWidth {
		s = width.Fold.String(s)
	}
	return strings.ToLower(s)
}
