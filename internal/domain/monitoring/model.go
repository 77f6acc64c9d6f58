package monitoring

import (
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the lifecycle state of a monitoring plan. Only ACTIVE plans
// count against the practice's subscription quota.
type PlanStatus string

const (
	StatusDraft     PlanStatus = "DRAFT"
	StatusActive    PlanStatus = "ACTIVE"
	StatusPaused    PlanStatus = "PAUSED"
	StatusCompleted PlanStatus = "COMPLETED"
	StatusArchived  PlanStatus = "ARCHIVED"
)

var validStatuses = map[PlanStatus]bool{
	StatusDraft:     true,
	StatusActive:    true,
	StatusPaused:    true,
	StatusCompleted: true,
	StatusArchived:  true,
}

// allowedTransitions lists the permitted status moves. ARCHIVED is terminal.
var allowedTransitions = map[PlanStatus][]PlanStatus{
	StatusDraft:     {StatusActive, StatusArchived},
	StatusActive:    {StatusPaused, StatusCompleted, StatusArchived},
	StatusPaused:    {StatusActive, StatusCompleted, StatusArchived},
	StatusCompleted: {StatusArchived},
	StatusArchived:  {},
}

func canTransition(from, to PlanStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Plan is a structured observation schedule for one patient, e.g. post-op
// recovery checks or chronic-condition tracking.
type Plan struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    string     `json:"tenant_id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      PlanStatus `json:"status"`
	CreatedBy   string     `json:"created_by"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
