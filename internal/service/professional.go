package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/privacy"
	"github.com/trudify/trudify-core/internal/query"
	"github.com/trudify/trudify-core/internal/ranking"
	"github.com/trudify/trudify-core/internal/repository"
)

type ProfessionalsPage struct {
	Professionals         []domain.Professional `json:"professionals"`
	FeaturedProfessionals []domain.Professional `json:"featuredProfessionals"`
	Pagination            query.Pagination      `json:"pagination"`
}

type ProfessionalService interface {
	GetProfessionals(ctx context.Context, raw map[string]string) (*ProfessionalsPage, error)
	// GetProfessionalByID returns (nil, nil) when no listable professional has id.
	GetProfessionalByID(ctx context.Context, id string) (*domain.Professional, error)
}

// FeaturedRanker selects the spotlight list shown next to every listing.
type FeaturedRanker interface {
	Featured(ctx context.Context, limit int) ([]domain.ProfessionalRecord, error)
}

type ProfessionalOptions struct {
	Parser              query.Parser
	FeaturedLimit       int
	MostActiveThreshold int
	// CheckLeaks runs the response self-check for private fields.
	CheckLeaks bool
}

type ProfessionalServiceImpl struct {
	log      *slog.Logger
	repo     repository.ProfessionalRepository
	featured FeaturedRanker
	opts     ProfessionalOptions
	now      func() time.Time
}

func NewProfessionalService(
	log *slog.Logger,
	repo repository.ProfessionalRepository,
	featured FeaturedRanker,
	opts ProfessionalOptions,
) *ProfessionalServiceImpl {
	return &ProfessionalServiceImpl{
		log:      log,
		repo:     repo,
		featured: featured,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *ProfessionalServiceImpl) GetProfessionals(ctx context.Context, raw map[string]string) (*ProfessionalsPage, error) {
	const op = "internal.service.professional.GetProfessionals"

	params := s.opts.Parser.Parse(raw)
	log := s.log.With(
		slog.String("op", op),
		slog.String("sort_by", string(params.SortBy)),
		slog.Int("page", params.Page),
	)

	if errs := s.opts.Parser.Validate(params); len(errs) > 0 {
		return nil, &apperrors.QueryValidationError{Errors: errs}
	}

	records, total, err := s.repo.ListProfessionals(ctx, repository.ProfessionalFilter{
		Category:            params.Category,
		City:                params.City,
		Neighborhood:        params.Neighborhood,
		MinRating:           params.MinRating,
		MinJobs:             params.MinJobs,
		Verified:            params.Verified,
		MostActive:          params.MostActive,
		MostActiveThreshold: s.opts.MostActiveThreshold,
		SortBy:              params.SortBy,
		Offset:              params.Offset(),
		Limit:               params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list professionals: %w", op, err)
	}

	ranking.MarkFeatured(records, s.now())

	// the store can only approximate this order, featured is not a column
	if params.SortBy == query.SortFeatured {
		ranking.SortFeaturedFirst(records)
	}

	featured, err := s.featured.Featured(ctx, s.opts.FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get featured professionals: %w", op, err)
	}

	page := &ProfessionalsPage{
		Professionals:         privacy.FilterAll(records),
		FeaturedProfessionals: privacy.FilterAll(featured),
		Pagination:            query.NewPagination(params.Page, params.Limit, total),
	}

	if s.opts.CheckLeaks && !privacy.ValidateNoSensitiveFields(page) {
		log.Error("professionals response contains private fields")
	}

	log.Debug("professionals listed",
		slog.Int("returned", len(page.Professionals)),
		slog.Int("total", total),
	)

	return page, nil
}

func (s *ProfessionalServiceImpl) GetProfessionalByID(ctx context.Context, id string) (*domain.Professional, error) {
	const op = "internal.service.professional.GetProfessionalByID"

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	rec, err := s.repo.GetProfessionalByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: failed to get professional: %w", op, err)
	}

	rec.Featured = ranking.IsFeatured(rec, s.now())
	p := privacy.Filter(rec)

	if s.opts.CheckLeaks && !privacy.ValidateNoSensitiveFields(p) {
		s.log.Error("professional response contains private fields",
			slog.String("op", op),
			slog.String("professional_id", id),
		)
	}

	return &p, nil
}
