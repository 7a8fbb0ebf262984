package domain

import (
	"time"

	"github.com/lib/pq"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusExpired    TaskStatus = "expired"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusOpen:       {TaskStatusInProgress, TaskStatusCancelled, TaskStatusExpired},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusOpen, TaskStatusCancelled},
	TaskStatusCompleted:  {},
	TaskStatusCancelled:  {},
	TaskStatusExpired:    {},
}

func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

// CanTransitionTo reports whether a task may move from s to next.
// in_progress -> open happens when the selected professional withdraws.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

type BudgetType string

const (
	BudgetTypeFixed  BudgetType = "fixed"
	BudgetTypeHourly BudgetType = "hourly"
)

type Task struct {
	ID                     string         `db:"id" json:"id"`
	Title                  string         `db:"title" json:"title"`
	Description            string         `db:"description" json:"description"`
	Category               string         `db:"category" json:"category"`
	Subcategory            *string        `db:"subcategory" json:"subcategory"`
	City                   string         `db:"city" json:"city"`
	Neighborhood           *string        `db:"neighborhood" json:"neighborhood"`
	BudgetMin              *float64       `db:"budget_min" json:"budget_min"`
	BudgetMax              *float64       `db:"budget_max" json:"budget_max"`
	BudgetType             BudgetType     `db:"budget_type" json:"budget_type"`
	Status                 TaskStatus     `db:"status" json:"status"`
	CustomerID             string         `db:"customer_id" json:"customer_id"`
	SelectedProfessionalID *string        `db:"selected_professional_id" json:"selected_professional_id"`
	ApplicationsCount      int            `db:"applications_count" json:"applications_count"`
	CompletionNotes        *string        `db:"completion_notes" json:"completion_notes"`
	CompletionPhotos       pq.StringArray `db:"completion_photos" json:"completion_photos"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at" json:"updated_at"`
	CompletedAt            *time.Time     `db:"completed_at" json:"completed_at"`
	CancelledAt            *time.Time     `db:"cancelled_at" json:"cancelled_at"`
}

// IsParticipant reports whether userID is the customer or the selected
// professional of the task.
func (t *Task) IsParticipant(userID string) bool {
	if t.CustomerID == userID {
		return true
	}

	return t.SelectedProfessionalID != nil && *t.SelectedProfessionalID == userID
}
