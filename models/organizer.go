package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task status constants
const (
	TaskStatusOpen       = "OPEN"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusDone       = "DONE"
)

// IsValidTaskStatus checks if the task status is valid
func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Task is an organizer to-do item attached to a case
type Task struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `gorm:"size:32;not null;default:OPEN" json:"status"`

	AssigneeID *string `gorm:"type:uuid" json:"assignee_id,omitempty"`
	Assignee   *User   `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// BeforeCreate hook to generate UUID
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = TaskStatusOpen
	}
	return nil
}

// TableName specifies the table name for Task model
func (Task) TableName() string {
	return "tasks"
}

// IsDone checks whether the task is completed
func (t *Task) IsDone() bool {
	return t.Status == TaskStatusDone
}

// Deadline priority constants
const (
	DeadlinePriorityHigh   = "HIGH"
	DeadlinePriorityMedium = "MEDIUM"
	DeadlinePriorityLow    = "LOW"
)

// IsValidDeadlinePriority checks if the priority is valid
func IsValidDeadlinePriority(p string) bool {
	return p == DeadlinePriorityHigh || p == DeadlinePriorityMedium || p == DeadlinePriorityLow
}

// Deadline is a date-bound organizer item (Frist) attached to a case
type Deadline struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`
	Case   *Case  `gorm:"foreignKey:CaseID" json:"case,omitempty"`

	Label    string    `gorm:"size:255;not null" json:"label"`
	DueDate  time.Time `gorm:"not null;index" json:"due_date"`
	Priority string    `gorm:"size:16;not null;default:MEDIUM" json:"priority"`
	Done     bool      `gorm:"not null;default:false" json:"done"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
}

// BeforeCreate hook to generate UUID
func (d *Deadline) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Priority == "" {
		d.Priority = DeadlinePriorityMedium
	}
	return nil
}

// TableName specifies the table name for Deadline model
func (Deadline) TableName() string {
	return "deadlines"
}

// PriorityRank maps the priority to a sortable rank (high first)
func (d *Deadline) PriorityRank() int {
	switch d.Priority {
	case DeadlinePriorityHigh:
		return 0
	case DeadlinePriorityMedium:
		return 1
	default:
		return 2
	}
}

// Note is a free-text organizer entry attached to a case.
// Content is sanitized HTML; notes carry no due date, assignee or status.
type Note struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	Title   string `gorm:"size:255;not null" json:"title"`
	Content string `gorm:"type:text" json:"content"`
}

// BeforeCreate hook to generate UUID
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Note model
func (Note) TableName() string {
	return "notes"
}
