package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func createTestUser(t *testing.T, database *gorm.DB, email, password, role string, active bool) *models.User {
	hash, err := services.HashPassword(password)
	assert.NoError(t, err)

	user := &models.User{
		Name:     "Test User",
		Email:    email,
		Password: hash,
		Role:     role,
		IsActive: active,
	}
	assert.NoError(t, database.Create(user).Error)
	return user
}

func TestLoginHandler(t *testing.T) {
	database := setupTestDB(t)
	createTestUser(t, database, "anwalt@kanzlei.test", "correct-horse-battery", "lawyer", true)
	createTestUser(t, database, "inactive@kanzlei.test", "correct-horse-battery", "staff", false)

	t.Run("Success sets session cookie", func(t *testing.T) {
		body := `{"email":"anwalt@kanzlei.test","password":"correct-horse-battery"}`
		_, c, rec := setupEcho(http.MethodPost, "/api/login", strings.NewReader(body))

		err := LoginHandler(testConfig())(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		var found bool
		for _, cookie := range cookies {
			if cookie.Name == middleware.SessionCookieName && cookie.Value != "" {
				found = true
				assert.True(t, cookie.HttpOnly)
			}
		}
		assert.True(t, found)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		user := resp["user"].(map[string]interface{})
		assert.Equal(t, "anwalt@kanzlei.test", user["email"])
		assert.NotContains(t, user, "password")
	})

	t.Run("Wrong password", func(t *testing.T) {
		body := `{"email":"anwalt@kanzlei.test","password":"wrong"}`
		_, c, _ := setupEcho(http.MethodPost, "/api/login", strings.NewReader(body))

		err := LoginHandler(testConfig())(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("Unknown email", func(t *testing.T) {
		body := `{"email":"nobody@kanzlei.test","password":"whatever"}`
		_, c, _ := setupEcho(http.MethodPost, "/api/login", strings.NewReader(body))

		err := LoginHandler(testConfig())(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("Inactive account", func(t *testing.T) {
		body := `{"email":"inactive@kanzlei.test","password":"correct-horse-battery"}`
		_, c, _ := setupEcho(http.MethodPost, "/api/login", strings.NewReader(body))

		err := LoginHandler(testConfig())(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestMeHandler(t *testing.T) {
	database := setupTestDB(t)
	user := createTestUser(t, database, "me@kanzlei.test", "correct-horse-battery", "admin", true)

	t.Run("With user in context", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/me", nil)
		c.Set(middleware.ContextKeyUser, user)

		err := MeHandler(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Without user", func(t *testing.T) {
		_, c, _ := setupEcho(http.MethodGet, "/api/me", nil)

		err := MeHandler(c)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}
