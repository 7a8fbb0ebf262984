package domain

import "time"

type NotificationType string

const (
	NotificationTaskInvitation       NotificationType = "task_invitation"
	NotificationApplicationReceived  NotificationType = "application_received"
	NotificationApplicationAccepted  NotificationType = "application_accepted"
	NotificationApplicationRejected  NotificationType = "application_rejected"
	NotificationApplicationWithdrawn NotificationType = "application_withdrawn"
	NotificationTaskCompleted        NotificationType = "task_completed"
)

type Notification struct {
	ID        string           `db:"id"`
	UserID    string           `db:"user_id"`
	Type      NotificationType `db:"type"`
	TaskID    *string          `db:"task_id"`
	Title     string           `db:"title"`
	Message   string           `db:"message"`
	CreatedAt time.Time        `db:"created_at"`
}

// Recipient is the contact data needed to deliver notifications to a user.
type Recipient struct {
	ID                    string  `db:"id"`
	FullName              *string `db:"full_name"`
	Email                 *string `db:"email"`
	Phone                 *string `db:"phone"`
	TelegramChatID        *string `db:"telegram_chat_id"`
	PreferredLanguage     *string `db:"preferred_language"`
	EmailNotifications    bool    `db:"email_notifications"`
	TelegramNotifications bool    `db:"telegram_notifications"`
}

// Locale returns the preferred language or "bg".
func (r *Recipient) Locale() string {
	if r.PreferredLanguage == nil || *r.PreferredLanguage == "" {
		return "bg"
	}

	return *r.PreferredLanguage
}

type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

// DeliveryResult is the outcome of one Telegram or email send. Reason is set
// for failed and skipped deliveries.
type DeliveryResult struct {
	Status DeliveryStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
}

func (r DeliveryResult) Failed() bool {
	return r.Status == DeliveryFailed
}

// ContactMethod selects what is shared with the professional once their
// application is accepted.
type ContactMethod string

const (
	ContactPhone  ContactMethod = "phone"
	ContactEmail  ContactMethod = "email"
	ContactCustom ContactMethod = "custom"
)

func (m ContactMethod) IsValid() bool {
	switch m {
	case ContactPhone, ContactEmail, ContactCustom:
		return true
	}

	return false
}

// ContactShare describes an accepted application whose parties should be put
// in touch.
type ContactShare struct {
	Method         ContactMethod
	TaskID         string
	TaskTitle      string
	CustomerID     string
	ProfessionalID string
}
