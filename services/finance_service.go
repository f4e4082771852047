package services

import (
	"errors"
	"fmt"

	"kanzlei_app_go/models"

	"gorm.io/gorm"
)

// LedgerTotals are the derived debit/credit sums of a case's ledger.
// They are folded from the position list at read time and never stored,
// so they cannot drift from the rows they summarize.
type LedgerTotals struct {
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
	Balance float64 `json:"balance"`
}

// FoldTotals computes the running totals over a list of positions
func FoldTotals(positions []models.FinancialPosition) LedgerTotals {
	var t LedgerTotals
	for i := range positions {
		t.Debit += positions[i].Debit()
		t.Credit += positions[i].Credit()
	}
	t.Balance = t.Credit - t.Debit
	return t
}

// GetLedger loads a case's financial positions (newest booking first) together
// with their folded totals
func GetLedger(database *gorm.DB, caseID string) ([]models.FinancialPosition, LedgerTotals, error) {
	var positions []models.FinancialPosition
	if err := database.Preload("Document").
		Where("case_id = ?", caseID).
		Order("booked_at DESC").
		Find(&positions).Error; err != nil {
		return nil, LedgerTotals{}, fmt.Errorf("failed to fetch financial positions: %w", err)
	}
	return positions, FoldTotals(positions), nil
}

// CreatePosition validates and creates a ledger position for a case.
// At least one of debit/credit must be present; a linked document must
// belong to the same case.
func CreatePosition(database *gorm.DB, caseID string, pos *models.FinancialPosition) error {
	var kase models.Case
	if err := database.First(&kase, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load case: %w", err)
	}

	if pos.DebitAmount == nil && pos.CreditAmount == nil {
		return NewValidationError("amount", "either debit_amount or credit_amount is required")
	}

	if pos.DocumentID != nil {
		var doc models.Document
		if err := database.First(&doc, "id = ? AND case_id = ?", *pos.DocumentID, caseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewValidationError("document_id", "document does not belong to this case")
			}
			return fmt.Errorf("failed to load linked document: %w", err)
		}
	}

	pos.CaseID = caseID
	if err := database.Create(pos).Error; err != nil {
		return fmt.Errorf("failed to create financial position: %w", err)
	}
	return nil
}
