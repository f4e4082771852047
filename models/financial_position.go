package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FinancialPosition is a single ledger line (Zahlungsposition) in a case.
// Debit and credit are independent; either may be absent. Totals are never
// stored - they are folded from the list at read time.
type FinancialPosition struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	// Optional link to a supporting document (invoice, receipt)
	DocumentID *string   `gorm:"type:uuid" json:"document_id,omitempty"`
	Document   *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`

	DebitAmount  *float64 `json:"debit_amount,omitempty"`
	CreditAmount *float64 `json:"credit_amount,omitempty"`

	Description string    `gorm:"size:255" json:"description,omitempty"`
	BookedAt    time.Time `gorm:"not null" json:"booked_at"`
}

// BeforeCreate hook to generate UUID and default the booking date
func (p *FinancialPosition) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.BookedAt.IsZero() {
		p.BookedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for FinancialPosition model
func (FinancialPosition) TableName() string {
	return "financial_positions"
}

// Debit returns the debit amount, zero when unset
func (p *FinancialPosition) Debit() float64 {
	if p.DebitAmount == nil {
		return 0
	}
	return *p.DebitAmount
}

// Credit returns the credit amount, zero when unset
func (p *FinancialPosition) Credit() float64 {
	if p.CreditAmount == nil {
		return 0
	}
	return *p.CreditAmount
}
