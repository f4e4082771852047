package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case status constants
const (
	CaseStatusOpen       = "OPEN"
	CaseStatusInProgress = "IN_PROGRESS"
	CaseStatusClosed     = "CLOSED"
)

// Case represents a legal case file (Akte)
type Case struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Case identification: NNNN.YY.<suffix>, e.g. 0042.26.awr
	FileNumber string `gorm:"size:50;not null;uniqueIndex" json:"file_number"`

	// Status and lifecycle
	Status   string     `gorm:"size:20;not null;default:OPEN;index" json:"status"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	// Party relationships
	ClientID string `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	OpponentID string   `gorm:"type:uuid;not null;index" json:"opponent_id"`
	Opponent   Opponent `gorm:"foreignKey:OpponentID" json:"opponent,omitempty"`

	// Free-text case description
	ModusOperandi string `gorm:"type:text" json:"modus_operandi,omitempty"`

	// Flexible extra data
	ExtraInfo JSONMap `gorm:"type:text" json:"extra_info"`

	// Frozen party master data, written once on close and never touched again
	ClientSnapshot   *PartySnapshot `gorm:"type:text" json:"client_snapshot,omitempty"`
	OpponentSnapshot *PartySnapshot `gorm:"type:text" json:"opponent_snapshot,omitempty"`

	// Relationships
	ThirdParties []ThirdParty        `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"third_parties,omitempty"`
	Tasks        []Task              `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
	Deadlines    []Deadline          `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"deadlines,omitempty"`
	Notes        []Note              `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"notes,omitempty"`
	Positions    []FinancialPosition `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"positions,omitempty"`
	Documents    []Document          `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CaseStatusOpen
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "cases"
}

// IsOpen checks if the case is open
func (c *Case) IsOpen() bool {
	return c.Status == CaseStatusOpen
}

// IsInProgress checks if the case is in progress
func (c *Case) IsInProgress() bool {
	return c.Status == CaseStatusInProgress
}

// IsClosed checks if the case is closed
func (c *Case) IsClosed() bool {
	return c.Status == CaseStatusClosed
}

// IsActive reports whether the case still counts for conflict checking
func (c *Case) IsActive() bool {
	return c.Status == CaseStatusOpen || c.Status == CaseStatusInProgress
}

// IsValidCaseStatus checks if the status is valid
func IsValidCaseStatus(status string) bool {
	switch status {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusClosed:
		return true
	}
	return false
}

// DisplayClient returns the client data to present for this case: the frozen
// snapshot once the case is closed, otherwise a snapshot-shaped view of the
// live record. Requires Client to be preloaded for non-closed cases.
func (c *Case) DisplayClient() PartySnapshot {
	if c.IsClosed() && c.ClientSnapshot != nil {
		return *c.ClientSnapshot
	}
	return c.Client.Snapshot()
}

// DisplayOpponent returns the opponent data to present for this case,
// preferring the frozen snapshot once closed.
func (c *Case) DisplayOpponent() PartySnapshot {
	if c.IsClosed() && c.OpponentSnapshot != nil {
		return *c.OpponentSnapshot
	}
	return c.Opponent.Snapshot()
}
