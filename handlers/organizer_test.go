package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"kanzlei_app_go/models"

	"github.com/stretchr/testify/assert"
)

func TestCreateNoteHandlerSanitizesContent(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Meier", "Schulze")
	kase := createTestCase(t, database, client, opponent, "0001.26.awr")

	body := `{"title":"Telefonnotiz","content":"<p>Anruf Mandant</p><script>alert(1)</script>"}`
	_, c, rec := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/notes", strings.NewReader(body))
	c.SetParamNames("id")
	c.SetParamValues(kase.ID)

	err := CreateNoteHandler(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var stored models.Note
	assert.NoError(t, database.First(&stored, "case_id = ?", kase.ID).Error)
	assert.Contains(t, stored.Content, "<p>Anruf Mandant</p>")
	assert.NotContains(t, stored.Content, "script")
}

func TestCreateDeadlineHandlerValidation(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Weber", "Fischer")
	kase := createTestCase(t, database, client, opponent, "0001.26.awr")

	t.Run("Missing label and due date", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/deadlines", strings.NewReader(`{}`))
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := CreateDeadlineHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		fields := resp["fields"].(map[string]interface{})
		assert.Contains(t, fields, "label")
		assert.Contains(t, fields, "due_date")
	})

	t.Run("Defaults priority to MEDIUM", func(t *testing.T) {
		body := `{"label":"Berufungsfrist","due_date":"2026-09-15T00:00:00Z"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/deadlines", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := CreateDeadlineHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var stored models.Deadline
		assert.NoError(t, database.First(&stored, "case_id = ?", kase.ID).Error)
		assert.Equal(t, models.DeadlinePriorityMedium, stored.Priority)
	})
}

func TestUpdateDeadlineHandlerReArmsReminder(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Braun", "Wolf")
	kase := createTestCase(t, database, client, opponent, "0001.26.awr")

	body := `{"label":"Einspruchsfrist","due_date":"2026-09-10T00:00:00Z","priority":"HIGH"}`
	_, c, rec := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/deadlines", strings.NewReader(body))
	c.SetParamNames("id")
	c.SetParamValues(kase.ID)
	assert.NoError(t, CreateDeadlineHandler(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var deadline models.Deadline
	assert.NoError(t, database.First(&deadline, "case_id = ?", kase.ID).Error)

	// Pretend the reminder already went out
	assert.NoError(t, database.Model(&deadline).Update("reminder_sent_at", deadline.CreatedAt).Error)

	update := `{"label":"Einspruchsfrist","due_date":"2026-09-20T00:00:00Z","priority":"HIGH"}`
	_, c2, rec2 := setupEcho(http.MethodPut, "/api/cases/"+kase.ID+"/deadlines/"+deadline.ID, strings.NewReader(update))
	c2.SetParamNames("id", "itemID")
	c2.SetParamValues(kase.ID, deadline.ID)
	assert.NoError(t, UpdateDeadlineHandler(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)

	var stored models.Deadline
	assert.NoError(t, database.First(&stored, "id = ?", deadline.ID).Error)
	assert.Nil(t, stored.ReminderSentAt)
}

func TestGetOrganizerHandler(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Peters", "Lang")
	kase := createTestCase(t, database, client, opponent, "0001.26.awr")

	assert.NoError(t, database.Create(&models.Task{CaseID: kase.ID, Title: "Akte anlegen"}).Error)
	assert.NoError(t, database.Create(&models.Note{CaseID: kase.ID, Title: "Notiz"}).Error)

	_, c, rec := setupEcho(http.MethodGet, "/api/cases/"+kase.ID+"/organizer", nil)
	c.SetParamNames("id")
	c.SetParamValues(kase.ID)

	err := GetOrganizerHandler(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Len(t, resp["tasks"], 1)
	assert.Len(t, resp["notes"], 1)
	assert.Empty(t, resp["deadlines"])
}
