package services

import (
	"testing"
	"time"

	"kanzlei_app_go/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildCaseCoverSheetHTML(t *testing.T) {
	closedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	kase := &models.Case{
		FileNumber: "0042.26.awr",
		Status:     models.CaseStatusClosed,
		ClosedAt:   &closedAt,
		ClientSnapshot: &models.PartySnapshot{
			PartyType:   models.PartyTypePerson,
			DisplayName: "Lehmann",
			Street:      "Hauptstrasse 1",
			PostalCode:  "10115",
			City:        "Berlin",
		},
		OpponentSnapshot: &models.PartySnapshot{
			PartyType:   models.PartyTypePerson,
			DisplayName: "Krause",
		},
		Client: models.Client{PartyDetails: models.PartyDetails{
			PartyType: models.PartyTypePerson,
			LastName:  "Umbenannt",
		}},
	}

	html, err := BuildCaseCoverSheetHTML(kase)
	assert.NoError(t, err)
	assert.Contains(t, html, "0042.26.awr")
	assert.Contains(t, html, "01.08.2026")

	// Closed cases print the frozen snapshot, not the live master data
	assert.Contains(t, html, "Lehmann")
	assert.Contains(t, html, "Krause")
	assert.NotContains(t, html, "Umbenannt")
}

func TestGeneratePDFOptions(t *testing.T) {
	options := DefaultPDFOptions()
	assert.Equal(t, "A4", options.PageSize)
	assert.Equal(t, "portrait", options.PageOrientation)
	assert.Empty(t, options.ChromePath)

	options.ChromePath = "/usr/bin/chromium"
	assert.Equal(t, "/usr/bin/chromium", options.ChromePath)
}
