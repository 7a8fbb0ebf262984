package http

type createTaskRequest struct {
	Title        string   `json:"title" validate:"required,min=5,max=200,no_contact_info"`
	Description  string   `json:"description" validate:"required,min=20,max=5000,no_contact_info"`
	Category     string   `json:"category" validate:"required,slug,max=50"`
	Subcategory  *string  `json:"subcategory" validate:"omitempty,slug,max=50"`
	City         string   `json:"city" validate:"required,max=100"`
	Neighborhood *string  `json:"neighborhood" validate:"omitempty,max=100"`
	BudgetMin    *float64 `json:"budgetMin" validate:"omitempty,gte=0"`
	BudgetMax    *float64 `json:"budgetMax" validate:"omitempty,gte=0"`
	BudgetType   string   `json:"budgetType" validate:"omitempty,oneof=fixed hourly"`
}

// Message is screened for contact details by the application service, which
// reports the kind of detail found.
type submitApplicationRequest struct {
	TaskID                 string   `json:"taskId" validate:"required,uuid"`
	ProposedPrice          float64  `json:"proposedPrice" validate:"gt=0"`
	EstimatedDurationHours *float64 `json:"estimatedDurationHours" validate:"omitempty,gt=0"`
	Timeline               string   `json:"timeline" validate:"omitempty,oneof=same-day within-3-days within-week flexible"`
	Message                string   `json:"message" validate:"max=2000"`
}

type updateApplicationRequest struct {
	Status          string  `json:"status" validate:"required,oneof=accepted rejected"`
	RejectionReason *string `json:"rejectionReason" validate:"omitempty,max=500"`
}

type withdrawApplicationRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type markCompleteRequest struct {
	CompletionNotes  *string  `json:"completionNotes" validate:"omitempty,max=2000"`
	CompletionPhotos []string `json:"completionPhotos" validate:"omitempty,max=10,dive,url"`
}

type withdrawFromTaskRequest struct {
	Reason      string  `json:"reason" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}
