package domain

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// DefaultCategory is the primary category of a professional without any
// service categories.
const DefaultCategory = "other"

// ProfessionalRecord is a full users row for a professional, private columns
// included. It must never be serialized; the privacy filter turns it into a
// Professional.
type ProfessionalRecord struct {
	ID                   string         `db:"id"`
	FullName             *string        `db:"full_name"`
	AvatarURL            *string        `db:"avatar_url"`
	ProfessionalTitle    *string        `db:"professional_title"`
	Bio                  *string        `db:"bio"`
	YearsExperience      *int           `db:"years_experience"`
	HourlyRate           *float64       `db:"hourly_rate"`
	ServiceCategories    pq.StringArray `db:"service_categories"`
	City                 *string        `db:"city"`
	Neighborhood         *string        `db:"neighborhood"`
	ServiceAreaCities    pq.StringArray `db:"service_area_cities"`
	TasksCompleted       int            `db:"tasks_completed"`
	AverageRating        *float64       `db:"average_rating"`
	TotalReviews         int            `db:"total_reviews"`
	IsPhoneVerified      bool           `db:"is_phone_verified"`
	IsEmailVerified      bool           `db:"is_email_verified"`
	IsVatVerified        bool           `db:"is_vat_verified"`
	VatNumber            *string        `db:"vat_number"`
	Email                *string        `db:"email"`
	Phone                *string        `db:"phone"`
	TelegramChatID       *string        `db:"telegram_chat_id"`
	PreferredContact     *string        `db:"preferred_contact"`
	PreferredLanguage    *string        `db:"preferred_language"`
	NotificationSettings types.JSONText `db:"notification_settings"`
	PrivacySettings      types.JSONText `db:"privacy_settings"`
	LastActiveAt         *time.Time     `db:"last_active_at"`
	ResponseTimeHours    *float64       `db:"response_time_hours"`
	IsEarlyAdopter       bool           `db:"is_early_adopter"`
	IsTopProfessional    bool           `db:"is_top_professional"`
	TopProfessionalUntil *time.Time     `db:"top_professional_until"`
	IsFeatured           bool           `db:"is_featured"`
	IsBanned             bool           `db:"is_banned"`
	BanReason            *string        `db:"ban_reason"`
	BannedAt             *time.Time     `db:"banned_at"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`

	// Featured is computed at read time, see ranking.IsFeatured.
	Featured bool `db:"-"`
}

// PrimaryCategory is the first service category, or DefaultCategory.
func (p *ProfessionalRecord) PrimaryCategory() string {
	if len(p.ServiceCategories) == 0 || p.ServiceCategories[0] == "" {
		return DefaultCategory
	}

	return p.ServiceCategories[0]
}

// ServesCity reports whether the professional is based in city or lists it
// among the service area cities.
func (p *ProfessionalRecord) ServesCity(city string) bool {
	if p.City != nil && *p.City == city {
		return true
	}

	for _, c := range p.ServiceAreaCities {
		if c == city {
			return true
		}
	}

	return false
}

// Professional is the public profile shape returned by the API.
type Professional struct {
	ID                   string     `json:"id"`
	FullName             *string    `json:"full_name"`
	AvatarURL            *string    `json:"avatar_url"`
	ProfessionalTitle    *string    `json:"professional_title"`
	Bio                  *string    `json:"bio"`
	YearsExperience      *int       `json:"years_experience"`
	HourlyRate           *float64   `json:"hourly_rate"`
	ServiceCategories    []string   `json:"service_categories"`
	City                 *string    `json:"city"`
	ServiceAreaCities    []string   `json:"service_area_cities"`
	TasksCompleted       int        `json:"tasks_completed"`
	AverageRating        *float64   `json:"average_rating"`
	TotalReviews         int        `json:"total_reviews"`
	IsPhoneVerified      bool       `json:"is_phone_verified"`
	IsEmailVerified      bool       `json:"is_email_verified"`
	IsVatVerified        bool       `json:"is_vat_verified"`
	IsEarlyAdopter       bool       `json:"is_early_adopter"`
	IsTopProfessional    bool       `json:"is_top_professional"`
	TopProfessionalUntil *time.Time `json:"top_professional_until"`
	IsFeatured           bool       `json:"is_featured"`
	Featured             bool       `json:"featured"`
	CreatedAt            time.Time  `json:"created_at"`
}
