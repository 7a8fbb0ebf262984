package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/trudify/trudify-core/internal/apperrors"
	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/query"
	"github.com/trudify/trudify-core/internal/repository"
)

var professionalColumns = []string{
	"id", "full_name", "avatar_url", "professional_title", "bio", "years_experience",
	"hourly_rate", "service_categories", "city", "neighborhood", "service_area_cities",
	"tasks_completed", "average_rating", "total_reviews", "is_phone_verified",
	"is_email_verified", "is_vat_verified", "vat_number", "email", "phone", "telegram_chat_id",
	"preferred_contact", "preferred_language", "notification_settings", "privacy_settings",
	"last_active_at", "response_time_hours", "is_early_adopter", "is_top_professional",
	"top_professional_until", "is_featured", "is_banned", "ban_reason", "banned_at",
	"created_at", "updated_at",
}

// listable is the eligibility predicate shared by every professional query.
var listable = sq.And{
	sq.Expr("professional_title IS NOT NULL"),
	sq.Expr("btrim(professional_title) <> ''"),
	sq.Expr("cardinality(service_categories) > 0"),
	sq.Expr("COALESCE(is_banned, FALSE) = FALSE"),
}

var _ repository.ProfessionalRepository = (*ProfessionalRepository)(nil)

type ProfessionalRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewProfessionalRepository(db *sqlx.DB, log *slog.Logger) *ProfessionalRepository {
	return &ProfessionalRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func filterPredicate(f repository.ProfessionalFilter) sq.And {
	where := sq.And{listable}

	if f.Category != "" {
		where = append(where, sq.Expr("? = ANY(service_categories)", f.Category))
	}

	if f.City != "" {
		where = append(where, sq.Eq{"city": f.City})
	}

	if f.Neighborhood != "" {
		where = append(where, sq.Eq{"neighborhood": f.Neighborhood})
	}

	if f.MinRating != nil {
		where = append(where, sq.GtOrEq{"average_rating": *f.MinRating})
	}

	if f.MinJobs != nil {
		where = append(where, sq.GtOrEq{"tasks_completed": *f.MinJobs})
	}

	if f.Verified {
		where = append(where, sq.Or{
			sq.Eq{"is_phone_verified": true},
			sq.Eq{"is_email_verified": true},
		})
	}

	if f.MostActive {
		where = append(where, sq.Gt{"tasks_completed": f.MostActiveThreshold})
	}

	return where
}

func orderBy(sortBy query.SortBy) []string {
	switch sortBy {
	case query.SortRating:
		return []string{"average_rating DESC NULLS LAST", "total_reviews DESC", "id"}
	case query.SortJobs:
		return []string{"tasks_completed DESC", "id"}
	case query.SortNewest:
		return []string{"created_at DESC", "id"}
	default:
		// featured is finished in memory once flags are known
		return []string{"average_rating DESC NULLS LAST", "tasks_completed DESC", "id"}
	}
}

func (r *ProfessionalRepository) ListProfessionals(ctx context.Context, f repository.ProfessionalFilter) ([]domain.ProfessionalRecord, int, error) {
	const op = "internal.repository.postgres.ListProfessionals"

	where := filterPredicate(f)

	countQuery, countArgs, err := r.sq.Select("COUNT(*)").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to build count query: %w", op, err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count professionals: %w", op, err)
	}

	if total == 0 || f.Offset >= total {
		return []domain.ProfessionalRecord{}, total, nil
	}

	listQuery, listArgs, err := r.sq.Select(professionalColumns...).
		From("users").
		Where(where).
		OrderBy(orderBy(f.SortBy)...).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to build list query: %w", op, err)
	}

	professionals := []domain.ProfessionalRecord{}
	if err := r.db.SelectContext(ctx, &professionals, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to select professionals: %w", op, err)
	}

	return professionals, total, nil
}

func (r *ProfessionalRepository) GetProfessionalByID(ctx context.Context, id string) (*domain.ProfessionalRecord, error) {
	const op = "internal.repository.postgres.GetProfessionalByID"

	stmt, args, err := r.sq.Select(professionalColumns...).
		From("users").
		Where(sq.And{listable, sq.Eq{"id": id}}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var p domain.ProfessionalRecord
	if err := r.db.GetContext(ctx, &p, stmt, args...); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%s: %w: professional with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get professional: %w", op, err)
	}

	return &p, nil
}

func (r *ProfessionalRepository) ListFlaggedProfessionals(ctx context.Context, now time.Time, limit int) ([]domain.ProfessionalRecord, error) {
	const op = "internal.repository.postgres.ListFlaggedProfessionals"

	stmt, args, err := r.sq.Select(professionalColumns...).
		From("users").
		Where(listable).
		Where(sq.Or{
			sq.Eq{"is_featured": true},
			sq.Eq{"is_early_adopter": true},
			sq.And{
				sq.Eq{"is_top_professional": true},
				sq.GtOrEq{"top_professional_until": now},
			},
		}).
		OrderBy(orderBy(query.SortFeatured)...).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	professionals := []domain.ProfessionalRecord{}
	if err := r.db.SelectContext(ctx, &professionals, stmt, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select flagged professionals: %w", op, err)
	}

	return professionals, nil
}

func (r *ProfessionalRepository) ListFeaturedCandidates(ctx context.Context, excludeIDs []string, limit int) ([]domain.ProfessionalRecord, error) {
	const op = "internal.repository.postgres.ListFeaturedCandidates"

	builder := r.sq.Select(professionalColumns...).
		From("users").
		Where(listable)

	if len(excludeIDs) > 0 {
		builder = builder.Where(sq.NotEq{"id": excludeIDs})
	}

	stmt, args, err := builder.
		OrderBy(orderBy(query.SortFeatured)...).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	professionals := []domain.ProfessionalRecord{}
	if err := r.db.SelectContext(ctx, &professionals, stmt, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select candidates: %w", op, err)
	}

	return professionals, nil
}

func (r *ProfessionalRepository) ListProfessionalsByCategory(ctx context.Context, category string, excludeUserID string) ([]domain.ProfessionalRecord, error) {
	const op = "internal.repository.postgres.ListProfessionalsByCategory"

	builder := r.sq.Select(professionalColumns...).
		From("users").
		Where(listable).
		Where(sq.Expr("? = ANY(service_categories)", category))

	if excludeUserID != "" {
		builder = builder.Where(sq.NotEq{"id": excludeUserID})
	}

	stmt, args, err := builder.OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	professionals := []domain.ProfessionalRecord{}
	if err := r.db.SelectContext(ctx, &professionals, stmt, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select professionals by category: %w", op, err)
	}

	return professionals, nil
}
