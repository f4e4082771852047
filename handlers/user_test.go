package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestCreateUserHandler(t *testing.T) {
	database := setupTestDB(t)

	t.Run("Creates an active staff user by default", func(t *testing.T) {
		body := `{"name":"Neue Kollegin","email":"Neu@Kanzlei.test","password":"langes-passwort"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/users", strings.NewReader(body))

		err := CreateUserHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var stored models.User
		assert.NoError(t, database.First(&stored, "email = ?", "neu@kanzlei.test").Error)
		assert.Equal(t, "staff", stored.Role)
		assert.True(t, stored.IsActive)
	})

	t.Run("Short password is rejected", func(t *testing.T) {
		body := `{"name":"X","email":"x@kanzlei.test","password":"kurz"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/users", strings.NewReader(body))

		err := CreateUserHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		fields := resp["fields"].(map[string]interface{})
		assert.Contains(t, fields, "password")
	})
}

func TestUpdateUserHandlerPermissions(t *testing.T) {
	database := setupTestDB(t)
	admin := createTestUser(t, database, "chef@kanzlei.test", "correct-horse-battery", "admin", true)
	staff := createTestUser(t, database, "azubi@kanzlei.test", "correct-horse-battery", "staff", true)

	t.Run("User edits own name", func(t *testing.T) {
		body := `{"name":"Neuer Name"}`
		_, c, rec := setupEcho(http.MethodPut, "/api/users/"+staff.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(staff.ID)
		c.Set(middleware.ContextKeyUser, staff)

		err := UpdateUserHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored models.User
		assert.NoError(t, database.First(&stored, "id = ?", staff.ID).Error)
		assert.Equal(t, "Neuer Name", stored.Name)
	})

	t.Run("User cannot edit someone else", func(t *testing.T) {
		body := `{"name":"Gekapert"}`
		_, c, _ := setupEcho(http.MethodPut, "/api/users/"+admin.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(admin.ID)
		c.Set(middleware.ContextKeyUser, staff)

		err := UpdateUserHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("User cannot change own role", func(t *testing.T) {
		body := `{"role":"admin"}`
		_, c, _ := setupEcho(http.MethodPut, "/api/users/"+staff.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(staff.ID)
		c.Set(middleware.ContextKeyUser, staff)

		err := UpdateUserHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)

		var stored models.User
		assert.NoError(t, database.First(&stored, "id = ?", staff.ID).Error)
		assert.Equal(t, "staff", stored.Role)
	})

	t.Run("User cannot change own active flag", func(t *testing.T) {
		body := `{"is_active":false}`
		_, c, _ := setupEcho(http.MethodPut, "/api/users/"+staff.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(staff.ID)
		c.Set(middleware.ContextKeyUser, staff)

		err := UpdateUserHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("Admin changes another user's role", func(t *testing.T) {
		body := `{"role":"lawyer"}`
		_, c, rec := setupEcho(http.MethodPut, "/api/users/"+staff.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(staff.ID)
		c.Set(middleware.ContextKeyUser, admin)

		err := UpdateUserHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored models.User
		assert.NoError(t, database.First(&stored, "id = ?", staff.ID).Error)
		assert.Equal(t, "lawyer", stored.Role)
	})

	t.Run("Anonymous context is rejected", func(t *testing.T) {
		body := `{"name":"Niemand"}`
		_, c, _ := setupEcho(http.MethodPut, "/api/users/"+staff.ID, strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues(staff.ID)

		err := UpdateUserHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})
}
