// Package privacy maps raw professional rows onto the public profile shape
// and checks serialized responses for private fields.
package privacy

import (
	"encoding/json"

	"github.com/trudify/trudify-core/internal/domain"
)

// AllowedFields are the JSON keys of domain.Professional.
var AllowedFields = []string{
	"id", "full_name", "avatar_url", "professional_title", "bio", "years_experience",
	"hourly_rate", "service_categories", "city", "service_area_cities", "tasks_completed",
	"average_rating", "total_reviews", "is_phone_verified", "is_email_verified",
	"is_vat_verified", "is_early_adopter", "is_top_professional", "top_professional_until",
	"is_featured", "featured", "created_at",
}

// SensitiveFields must never appear in a professional listing response.
var SensitiveFields = []string{
	"email", "phone", "neighborhood", "vat_number", "notification_settings",
	"privacy_settings", "preferred_contact", "last_active_at", "response_time_hours",
	"is_banned", "ban_reason", "banned_at", "updated_at", "telegram_chat_id",
}

var sensitive = func() map[string]struct{} {
	m := make(map[string]struct{}, len(SensitiveFields))
	for _, f := range SensitiveFields {
		m[f] = struct{}{}
	}

	return m
}()

// Filter copies only the public fields of rec.
func Filter(rec *domain.ProfessionalRecord) domain.Professional {
	return domain.Professional{
		ID:                   rec.ID,
		FullName:             rec.FullName,
		AvatarURL:            rec.AvatarURL,
		ProfessionalTitle:    rec.ProfessionalTitle,
		Bio:                  rec.Bio,
		YearsExperience:      rec.YearsExperience,
		HourlyRate:           rec.HourlyRate,
		ServiceCategories:    nonNil(rec.ServiceCategories),
		City:                 rec.City,
		ServiceAreaCities:    nonNil(rec.ServiceAreaCities),
		TasksCompleted:       rec.TasksCompleted,
		AverageRating:        rec.AverageRating,
		TotalReviews:         rec.TotalReviews,
		IsPhoneVerified:      rec.IsPhoneVerified,
		IsEmailVerified:      rec.IsEmailVerified,
		IsVatVerified:        rec.IsVatVerified,
		IsEarlyAdopter:       rec.IsEarlyAdopter,
		IsTopProfessional:    rec.IsTopProfessional,
		TopProfessionalUntil: rec.TopProfessionalUntil,
		IsFeatured:           rec.IsFeatured,
		Featured:             rec.Featured,
		CreatedAt:            rec.CreatedAt,
	}
}

func FilterAll(recs []domain.ProfessionalRecord) []domain.Professional {
	out := make([]domain.Professional, len(recs))
	for i := range recs {
		out[i] = Filter(&recs[i])
	}

	return out
}

// ValidateNoSensitiveFields serializes data and walks every object at any
// depth. It returns false when a sensitive key is present or data cannot be
// serialized.
func ValidateNoSensitiveFields(data any) bool {
	b, err := json.Marshal(data)
	if err != nil {
		return false
	}

	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return false
	}

	return clean(tree)
}

func clean(node any) bool {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			if _, bad := sensitive[k]; bad {
				return false
			}

			if !clean(child) {
				return false
			}
		}
	case []any:
		for _, child := range v {
			if !clean(child) {
				return false
			}
		}
	}

	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
