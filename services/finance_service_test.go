package services

import (
	"testing"

	"kanzlei_app_go/models"

	"github.com/stretchr/testify/assert"
)

func floatToPtr(f float64) *float64 {
	return &f
}

func TestFoldTotals(t *testing.T) {
	t.Run("Empty ledger is zero", func(t *testing.T) {
		totals := FoldTotals(nil)
		assert.Zero(t, totals.Debit)
		assert.Zero(t, totals.Credit)
		assert.Zero(t, totals.Balance)
	})

	t.Run("Mixed positions fold independently", func(t *testing.T) {
		positions := []models.FinancialPosition{
			{DebitAmount: floatToPtr(150.50)},
			{CreditAmount: floatToPtr(1000)},
			{DebitAmount: floatToPtr(49.50), CreditAmount: floatToPtr(200)},
			{}, // neither side set
		}
		totals := FoldTotals(positions)
		assert.InDelta(t, 200.0, totals.Debit, 0.001)
		assert.InDelta(t, 1200.0, totals.Credit, 0.001)
		assert.InDelta(t, 1000.0, totals.Balance, 0.001)
	})
}

func TestCreatePosition(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := seedParties(t, database, "Meier", "Schulze")
	kase := seedCase(t, database, client, opponent, "0001.26.awr", models.CaseStatusOpen)

	t.Run("Requires an amount", func(t *testing.T) {
		err := CreatePosition(database, kase.ID, &models.FinancialPosition{Description: "leer"})
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "amount")
	})

	t.Run("Unknown case", func(t *testing.T) {
		err := CreatePosition(database, "missing", &models.FinancialPosition{DebitAmount: floatToPtr(10)})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Document must belong to the case", func(t *testing.T) {
		otherClient, otherOpponent := seedParties(t, database, "A", "B")
		otherCase := seedCase(t, database, otherClient, otherOpponent, "0002.26.awr", models.CaseStatusOpen)

		doc := &models.Document{
			CaseID:           otherCase.ID,
			Title:            "Rechnung",
			FileName:         "x.pdf",
			FileOriginalName: "rechnung.pdf",
			StorageKey:       "cases/0002.26.awr/x.pdf",
			FileSize:         1,
		}
		assert.NoError(t, database.Create(doc).Error)

		err := CreatePosition(database, kase.ID, &models.FinancialPosition{
			CreditAmount: floatToPtr(100),
			DocumentID:   &doc.ID,
		})
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Fields, "document_id")
	})

	t.Run("Ledger totals derive from rows", func(t *testing.T) {
		assert.NoError(t, CreatePosition(database, kase.ID, &models.FinancialPosition{
			DebitAmount: floatToPtr(250),
			Description: "Gerichtskosten",
		}))
		assert.NoError(t, CreatePosition(database, kase.ID, &models.FinancialPosition{
			CreditAmount: floatToPtr(400),
			Description:  "Zahlungseingang",
		}))

		positions, totals, err := GetLedger(database, kase.ID)
		assert.NoError(t, err)
		assert.Len(t, positions, 2)
		assert.InDelta(t, 250.0, totals.Debit, 0.001)
		assert.InDelta(t, 400.0, totals.Credit, 0.001)
		assert.InDelta(t, 150.0, totals.Balance, 0.001)
	})
}
