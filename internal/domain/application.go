package domain

import "time"

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:   {ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusWithdrawn},
	ApplicationStatusAccepted:  {ApplicationStatusWithdrawn},
	ApplicationStatusRejected:  {},
	ApplicationStatusWithdrawn: {},
}

func (s ApplicationStatus) IsValid() bool {
	_, ok := applicationTransitions[s]
	return ok
}

func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsActive is true for every status that blocks a new application by the
// same professional to the same task.
func (s ApplicationStatus) IsActive() bool {
	return s != ApplicationStatusWithdrawn
}

type Application struct {
	ID               string            `db:"id" json:"id"`
	TaskID           string            `db:"task_id" json:"task_id"`
	ProfessionalID   string            `db:"professional_id" json:"professional_id"`
	ProposedPrice    float64           `db:"proposed_price" json:"proposed_price"`
	ProposedTimeline string            `db:"proposed_timeline" json:"proposed_timeline"`
	Message          string            `db:"message" json:"message"`
	Status           ApplicationStatus `db:"status" json:"status"`
	RejectionReason  *string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
	WithdrawalReason *string           `db:"withdrawal_reason" json:"withdrawal_reason,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	RespondedAt      *time.Time        `db:"responded_at" json:"responded_at"`
	WithdrawnAt      *time.Time        `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

// StatusChange is a conditional application update: it only applies while
// the row is still in From.
type StatusChange struct {
	ApplicationID string
	From          ApplicationStatus
	To            ApplicationStatus
	Reason        *string
	At            time.Time
}
