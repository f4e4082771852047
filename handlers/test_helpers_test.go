package handlers

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"kanzlei_app_go/config"
	"kanzlei_app_go/db"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Use unique shared memory name to isolate tests while allowing shared cache for async tasks
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	assert.NoError(t, err)

	err = testDB.Exec("PRAGMA journal_mode=WAL;").Error
	assert.NoError(t, err)

	// Initialize Storage for tests if not already set
	if services.Storage == nil {
		services.Storage = services.NewLocalStorage(filepath.Join(os.TempDir(), "kanzlei_test_uploads"))
	}

	err = testDB.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.AuditLog{},
		&models.Client{},
		&models.Opponent{},
		&models.Case{},
		&models.ThirdParty{},
		&models.Task{},
		&models.Deadline{},
		&models.Note{},
		&models.FinancialPosition{},
		&models.Document{},
	)
	assert.NoError(t, err)

	// Set global DB
	db.DB = testDB

	return testDB
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", &config.Config{
		Environment:      "test",
		FileNumberSuffix: "awr",
		EmailTestMode:    true,
	})

	return e, c, rec
}

func stringToPtr(s string) *string {
	return &s
}

// createTestParties seeds one client and one opponent with the given names
func createTestParties(t *testing.T, database *gorm.DB, clientName, opponentName string) (*models.Client, *models.Opponent) {
	client := &models.Client{
		PartyDetails: models.PartyDetails{
			PartyType: models.PartyTypePerson,
			FirstName: "",
			LastName:  clientName,
			Street:    "Hauptstrasse 1",
			City:      "Berlin",
		},
		IBAN: "DE89370400440532013000",
	}
	assert.NoError(t, database.Create(client).Error)

	opponent := &models.Opponent{
		PartyDetails: models.PartyDetails{
			PartyType: models.PartyTypePerson,
			LastName:  opponentName,
			Street:    "Nebenweg 2",
			City:      "Hamburg",
		},
	}
	assert.NoError(t, database.Create(opponent).Error)

	return client, opponent
}

// createTestCase seeds a case for the given parties
func createTestCase(t *testing.T, database *gorm.DB, client *models.Client, opponent *models.Opponent, fileNumber string) *models.Case {
	kase := &models.Case{
		FileNumber: fileNumber,
		Status:     models.CaseStatusOpen,
		ClientID:   client.ID,
		OpponentID: opponent.ID,
		ExtraInfo:  models.JSONMap{},
	}
	assert.NoError(t, database.Create(kase).Error)
	kase.Client = *client
	kase.Opponent = *opponent
	return kase
}
