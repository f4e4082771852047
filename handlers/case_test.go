package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"kanzlei_app_go/config"
	"kanzlei_app_go/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	return &config.Config{Environment: "test", FileNumberSuffix: "awr", EmailTestMode: true}
}

func TestCreateCaseHandler(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Meier", "Schulze")

	t.Run("Success with generated file number", func(t *testing.T) {
		body := `{"client_id":"` + client.ID + `","opponent_id":"` + opponent.ID + `","modus_operandi":"Verkehrsunfall"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/cases", strings.NewReader(body))

		err := CreateCaseHandler(testConfig())(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		kase := resp["case"].(map[string]interface{})
		assert.Equal(t, models.CaseStatusOpen, kase["status"])
		assert.Regexp(t, `^\d{4}\.\d{2}\.awr$`, kase["file_number"])
	})

	t.Run("Missing parties returns field errors", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, "/api/cases", strings.NewReader(`{}`))

		err := CreateCaseHandler(testConfig())(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		fields := resp["fields"].(map[string]interface{})
		assert.Contains(t, fields, "client_id")
		assert.Contains(t, fields, "opponent_id")
	})

	t.Run("Conflict when client is opponent elsewhere", func(t *testing.T) {
		// Existing case: Meier vs Schulze. New client named Schulze must be rejected.
		conflictClient, otherOpponent := createTestParties(t, database, "Schulze", "Unrelated")

		body := `{"client_id":"` + conflictClient.ID + `","opponent_id":"` + otherOpponent.ID + `"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/cases", strings.NewReader(body))

		err := CreateCaseHandler(testConfig())(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Contains(t, resp, "conflict")
		assert.NotContains(t, resp, "fields")
	})

	t.Run("Conflict check is case and whitespace insensitive", func(t *testing.T) {
		conflictClient, otherOpponent := createTestParties(t, database, "  schulze ", "Somebody")

		body := `{"client_id":"` + conflictClient.ID + `","opponent_id":"` + otherOpponent.ID + `"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/cases", strings.NewReader(body))

		err := CreateCaseHandler(testConfig())(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "conflict")
	})

	t.Run("Same-role match is not a conflict", func(t *testing.T) {
		// A second case with a client also named Meier is allowed.
		sameClient, freshOpponent := createTestParties(t, database, "Meier", "Neuer Gegner")

		body := `{"client_id":"` + sameClient.ID + `","opponent_id":"` + freshOpponent.ID + `"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/cases", strings.NewReader(body))

		err := CreateCaseHandler(testConfig())(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestGetCaseHandlerDisplayRule(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Lehmann", "Krause")
	kase := createTestCase(t, database, client, opponent, "0001.26.awr")

	t.Run("Open case shows live data", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/cases/"+kase.ID, nil)
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := GetCaseHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		display := resp["client_display"].(map[string]interface{})
		assert.Equal(t, "Lehmann", display["display_name"])
	})

	t.Run("Closed case shows frozen snapshot after party edit", func(t *testing.T) {
		// Close, then rename the live client. The case must keep showing Lehmann.
		_, c, rec := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/close", nil)
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)
		assert.NoError(t, CloseCaseHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		assert.NoError(t, database.Model(client).Update("last_name", "Umbenannt").Error)

		_, c2, rec2 := setupEcho(http.MethodGet, "/api/cases/"+kase.ID, nil)
		c2.SetParamNames("id")
		c2.SetParamValues(kase.ID)
		assert.NoError(t, GetCaseHandler(c2))

		var resp map[string]interface{}
		json.Unmarshal(rec2.Body.Bytes(), &resp)
		display := resp["client_display"].(map[string]interface{})
		assert.Equal(t, "Lehmann", display["display_name"])

		// Live record really changed
		var live models.Client
		database.First(&live, "id = ?", client.ID)
		assert.Equal(t, "Umbenannt", live.LastName)
	})
}

func TestCloseCaseHandler(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Weber", "Fischer")
	kase := createTestCase(t, database, client, opponent, "0002.26.awr")

	t.Run("Close freezes snapshots and sets closed_at", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/close", nil)
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := CloseCaseHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored models.Case
		database.First(&stored, "id = ?", kase.ID)
		assert.Equal(t, models.CaseStatusClosed, stored.Status)
		assert.NotNil(t, stored.ClosedAt)
		assert.NotNil(t, stored.ClientSnapshot)
		assert.NotNil(t, stored.OpponentSnapshot)
		assert.Equal(t, "Weber", stored.ClientSnapshot.DisplayName)
		assert.NotEmpty(t, stored.ClientSnapshot.BankDetails)
	})

	t.Run("Second close returns 409", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/close", nil)
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := CloseCaseHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("Edit after close returns 409", func(t *testing.T) {
		body := `{"modus_operandi":"changed"}`
		_, c, _ := setupEcho(http.MethodPut, "/api/cases/"+kase.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := UpdateCaseHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("Unknown case returns 404", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPost, "/api/cases/missing/close", nil)
		c.SetParamNames("id")
		c.SetParamValues("missing")

		err := CloseCaseHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}

func TestUpdateCaseHandler(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Braun", "Zimmermann")
	kase := createTestCase(t, database, client, opponent, "0003.26.awr")

	t.Run("Status transition to IN_PROGRESS", func(t *testing.T) {
		body := `{"status":"IN_PROGRESS"}`
		_, c, rec := setupEcho(http.MethodPut, "/api/cases/"+kase.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := UpdateCaseHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored models.Case
		database.First(&stored, "id = ?", kase.ID)
		assert.Equal(t, models.CaseStatusInProgress, stored.Status)
	})

	t.Run("Closing via status edit is rejected", func(t *testing.T) {
		body := `{"status":"CLOSED"}`
		_, c, rec := setupEcho(http.MethodPut, "/api/cases/"+kase.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := UpdateCaseHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "status")
	})

	t.Run("Self-edit does not conflict with itself", func(t *testing.T) {
		// Re-submitting the case's own parties must not trip the conflict check.
		body := `{"client_id":"` + client.ID + `","opponent_id":"` + opponent.ID + `"}`
		_, c, rec := setupEcho(http.MethodPut, "/api/cases/"+kase.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := UpdateCaseHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Party swap into a conflict is rejected", func(t *testing.T) {
		// Case 0003 has Braun as client. Swapping another case's opponent to a
		// party named Braun is a cross-role collision.
		otherClient, otherOpponent := createTestParties(t, database, "Krüger", "Egal")
		second := createTestCase(t, database, otherClient, otherOpponent, "0004.26.awr")

		braunOpponent := &models.Opponent{PartyDetails: models.PartyDetails{
			PartyType: models.PartyTypePerson, LastName: "Braun",
		}}
		assert.NoError(t, database.Create(braunOpponent).Error)

		body := `{"opponent_id":"` + braunOpponent.ID + `"}`
		_, c, rec := setupEcho(http.MethodPut, "/api/cases/"+second.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(second.ID)

		err := UpdateCaseHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "conflict")
	})
}

func TestCaseExtraInfoHandler(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Hoffmann", "Schmitt")
	kase := createTestCase(t, database, client, opponent, "0005.26.awr")

	t.Run("Write and persist", func(t *testing.T) {
		body := `{"json_data":{"aktenzeichen_gericht":"4 C 123/26","richter":"Dr. Vogel"}}`
		_, c, rec := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/extra-info", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)

		err := CaseExtraInfoHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored models.Case
		database.First(&stored, "id = ?", kase.ID)
		assert.Equal(t, "4 C 123/26", stored.ExtraInfo["aktenzeichen_gericht"])
	})

	t.Run("Rejected on closed case", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/close", nil)
		c.SetParamNames("id")
		c.SetParamValues(kase.ID)
		assert.NoError(t, CloseCaseHandler(c))

		body := `{"json_data":{"x":"y"}}`
		_, c2, _ := setupEcho(http.MethodPost, "/api/cases/"+kase.ID+"/extra-info", strings.NewReader(body))
		c2.SetParamNames("id")
		c2.SetParamValues(kase.ID)

		err := CaseExtraInfoHandler(c2)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)

		// Blob untouched
		var stored models.Case
		database.First(&stored, "id = ?", kase.ID)
		assert.Equal(t, "4 C 123/26", stored.ExtraInfo["aktenzeichen_gericht"])
	})
}

func TestListCasesHandler(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Peters", "Lang")
	createTestCase(t, database, client, opponent, "0010.26.awr")

	otherOpponent := &models.Opponent{PartyDetails: models.PartyDetails{PartyType: models.PartyTypePerson, LastName: "Wolf"}}
	assert.NoError(t, database.Create(otherOpponent).Error)
	inProgress := &models.Case{
		FileNumber: "0011.26.awr",
		Status:     models.CaseStatusInProgress,
		ClientID:   client.ID,
		OpponentID: otherOpponent.ID,
		ExtraInfo:  models.JSONMap{},
	}
	assert.NoError(t, database.Create(inProgress).Error)

	t.Run("Status filter", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/cases?status=IN_PROGRESS", nil)

		err := ListCasesHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.EqualValues(t, 1, resp["total"])
	})

	t.Run("Keyword filter on file number", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/cases?q=0010.26", nil)

		err := ListCasesHandler(c)
		assert.NoError(t, err)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.EqualValues(t, 1, resp["total"])
	})

	t.Run("Invalid status rejected", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodGet, "/api/cases?status=BOGUS", nil)

		err := ListCasesHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestNextFileNumberHandler(t *testing.T) {
	database := setupTestDB(t)
	client, opponent := createTestParties(t, database, "Koch", "Bauer")
	createTestCase(t, database, client, opponent, "0001.26.awr")

	_, c, rec := setupEcho(http.MethodGet, "/api/cases/next-number", nil)

	err := NextFileNumberHandler(testConfig())(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Regexp(t, `^\d{4}\.\d{2}\.awr$`, resp["file_number"])
}
