package domain

// InviteJob describes a freshly created task whose matching professionals
// should be invited.
type InviteJob struct {
	TaskID     string   `json:"task_id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	City       string   `json:"city"`
	CustomerID string   `json:"customer_id"`
	BudgetMax  *float64 `json:"budget_max,omitempty"`
}

type InviteResult struct {
	InvitedCount int      `json:"invitedCount"`
	SkippedCount int      `json:"skippedCount"`
	Errors       []string `json:"errors"`
}
