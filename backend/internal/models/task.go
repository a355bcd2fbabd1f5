package models

import (
	"time"
)

// Priority levels form a closed set. Anything else is coerced to
// PriorityMedium before it reaches storage.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// NoDeadline is the sentinel stored when a task has no due date. It is
// distinct from every parseable calendar date.
const NoDeadline = "No deadline"

// DefaultProject is substituted for an unset project in exports.
const DefaultProject = "General"

type Task struct {
	ID      uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID int64  `json:"owner_id" gorm:"column:owner_id;not null;index"`
	Name    string `json:"name" gorm:"not null"`
	// DueDate is either a canonical YYYY-MM-DD string or NoDeadline,
	// never free text.
	DueDate     string `json:"due_date"`
	Description string `json:"description"`
	Priority    string `json:"priority" gorm:"not null;default:'Medium'"`
	IsCompleted bool   `json:"is_completed" gorm:"not null;default:false"`
	// CompletedAt is an RFC 3339 UTC timestamp, set exactly once when the
	// task is marked done. Empty while the task is active.
	CompletedAt string    `json:"completed_at,omitempty"`
	Tags        string    `json:"tags,omitempty"`
	Project     string    `json:"project,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// NormalizePriority coerces any value outside the closed set to Medium.
// Invalid input is never rejected and never left unset.
func NormalizePriority(p string) string {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	}
	return PriorityMedium
}
