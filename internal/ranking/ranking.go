// Package ranking selects and orders the featured professionals shown above
// listing results.
package ranking

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/trudify/trudify-core/internal/domain"
)

const (
	scoreAvatar      = 3
	scoreLongBio     = 2
	scoreHasReviews  = 2
	scoreVatVerified = 3
	scoreHighRating  = 2

	longBioRunes    = 150
	highRatingFloor = 4.5
)

// IsFeatured reports whether the professional carries a featured flag at now.
func IsFeatured(p *domain.ProfessionalRecord, now time.Time) bool {
	if p.IsFeatured || p.IsEarlyAdopter {
		return true
	}

	return p.IsTopProfessional && p.TopProfessionalUntil != nil && !p.TopProfessionalUntil.Before(now)
}

// MarkFeatured sets the computed Featured field on every record.
func MarkFeatured(ps []domain.ProfessionalRecord, now time.Time) {
	for i := range ps {
		ps[i].Featured = IsFeatured(&ps[i], now)
	}
}

// Score rates profile completeness and quality of a non-flagged professional.
func Score(p *domain.ProfessionalRecord) int {
	score := 0

	if p.AvatarURL != nil && *p.AvatarURL != "" {
		score += scoreAvatar
	}

	if p.Bio != nil && utf8.RuneCountInString(*p.Bio) > longBioRunes {
		score += scoreLongBio
	}

	if p.TotalReviews > 0 && p.AverageRating != nil {
		score += scoreHasReviews
	}

	if p.IsVatVerified {
		score += scoreVatVerified
	}

	if p.AverageRating != nil && *p.AverageRating >= highRatingFloor {
		score += scoreHighRating
	}

	return score
}

// SortFeaturedFirst stably orders featured professionals first, then by
// rating (missing ratings last) and completed tasks.
func SortFeaturedFirst(ps []domain.ProfessionalRecord) {
	slices.SortStableFunc(ps, func(a, b domain.ProfessionalRecord) int {
		if a.Featured != b.Featured {
			if a.Featured {
				return -1
			}

			return 1
		}

		if c := compareRatingDesc(a.AverageRating, b.AverageRating); c != 0 {
			return c
		}

		return cmp.Compare(b.TasksCompleted, a.TasksCompleted)
	})
}

func compareRatingDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	return cmp.Compare(*b, *a)
}

// Diversify picks up to limit professionals keeping at most perCategory of
// any primary category. When that leaves free slots they are filled with the
// skipped professionals in their original order.
func Diversify(ps []domain.ProfessionalRecord, limit, perCategory int) []domain.ProfessionalRecord {
	if limit <= 0 {
		return []domain.ProfessionalRecord{}
	}

	out := make([]domain.ProfessionalRecord, 0, min(limit, len(ps)))
	taken := make([]bool, len(ps))
	perCat := make(map[string]int)

	for i := range ps {
		if len(out) == limit {
			break
		}

		cat := ps[i].PrimaryCategory()
		if perCat[cat] >= perCategory {
			continue
		}

		perCat[cat]++
		taken[i] = true
		out = append(out, ps[i])
	}

	for i := range ps {
		if len(out) == limit {
			break
		}

		if !taken[i] {
			out = append(out, ps[i])
		}
	}

	return out
}

// Source provides the two candidate tiers.
type Source interface {
	ListFlaggedProfessionals(ctx context.Context, now time.Time, limit int) ([]domain.ProfessionalRecord, error)
	ListFeaturedCandidates(ctx context.Context, excludeIDs []string, limit int) ([]domain.ProfessionalRecord, error)
}

type Engine struct {
	log         *slog.Logger
	source      Source
	poolSize    int
	perCategory int
	now         func() time.Time
}

func NewEngine(log *slog.Logger, source Source, poolSize, perCategory int) *Engine {
	return &Engine{
		log:         log,
		source:      source,
		poolSize:    poolSize,
		perCategory: perCategory,
		now:         time.Now,
	}
}

// Featured returns at most limit professionals: flagged ones first, then the
// best scored candidates, diversified by primary category.
func (e *Engine) Featured(ctx context.Context, limit int) ([]domain.ProfessionalRecord, error) {
	const op = "internal.ranking.Featured"
	log := e.log.With(slog.String("op", op), slog.Int("limit", limit))

	if limit <= 0 {
		return []domain.ProfessionalRecord{}, nil
	}

	now := e.now()

	flagged, err := e.source.ListFlaggedProfessionals(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list flagged professionals: %w", op, err)
	}

	if len(flagged) > limit {
		flagged = flagged[:limit]
	}

	selected := flagged

	if missing := limit - len(flagged); missing > 0 {
		excludeIDs := make([]string, len(flagged))
		for i := range flagged {
			excludeIDs[i] = flagged[i].ID
		}

		candidates, err := e.source.ListFeaturedCandidates(ctx, excludeIDs, e.poolSize)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to list featured candidates: %w", op, err)
		}

		selected = append(selected, topScored(candidates, missing)...)
	}

	MarkFeatured(selected, now)
	result := Diversify(selected, limit, e.perCategory)

	log.Debug("featured professionals selected",
		slog.Int("flagged", len(flagged)),
		slog.Int("selected", len(result)),
	)

	return result, nil
}

func topScored(candidates []domain.ProfessionalRecord, n int) []domain.ProfessionalRecord {
	type scored struct {
		p     domain.ProfessionalRecord
		score int
	}

	all := make([]scored, len(candidates))
	for i := range candidates {
		all[i] = scored{p: candidates[i], score: Score(&candidates[i])}
	}

	slices.SortStableFunc(all, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})

	out := make([]domain.ProfessionalRecord, 0, min(n, len(all)))
	for i := 0; i < len(all) && i < n; i++ {
		out = append(out, all[i].p)
	}

	return out
}
