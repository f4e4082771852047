package handlers

import (
	"net/http"
	"strings"

	"kanzlei_app_go/config"
	"kanzlei_app_go/db"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
)

// Package level variable holding a dummy hash for timing mitigation
var globalDummyHash = "$2a$10$X7.G.t8./.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t"

func init() {
	// Generate a real dummy hash at startup to ensure consistent timing
	hash, _ := services.HashPassword("dummy_password_for_timing_mitigation")
	if hash != "" {
		globalDummyHash = hash
	}
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler authenticates a user and sets the session cookie
func LoginHandler(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req LoginRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || req.Password == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
		}

		var user models.User
		err := db.DB.Where("email = ?", email).First(&user).Error
		if err != nil {
			// Timing attack mitigation: always run the bcrypt comparison
			services.CheckPassword(req.Password, globalDummyHash)
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}

		if !services.CheckPassword(req.Password, user.Password) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}

		if !user.IsActive {
			return echo.NewHTTPError(http.StatusUnauthorized, "Account deactivated")
		}

		session, err := services.CreateSession(db.DB, user.ID, c.RealIP(), c.Request().UserAgent())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
		}

		db.DB.Model(&user).Update("last_login_at", session.CreatedAt)

		middleware.SetSessionCookie(c, cfg, session)

		services.LogAuditEvent(db.DB, services.AuditContext{
			UserID:    user.ID,
			UserName:  user.Name,
			UserRole:  user.Role,
			IPAddress: c.RealIP(),
			UserAgent: c.Request().UserAgent(),
		}, models.AuditActionLogin, "user", user.ID, user.Name, "User logged in", nil, nil)

		return c.JSON(http.StatusOK, map[string]interface{}{
			"user": user,
		})
	}
}

// LogoutHandler deletes the current session and clears the cookie
func LogoutHandler(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil {
		if err := services.DeleteSession(db.DB, cookie.Value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete session")
		}
	}

	middleware.ClearSessionCookie(c)

	if user := middleware.GetCurrentUser(c); user != nil {
		services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
			models.AuditActionLogout, "user", user.ID, user.Name, "User logged out", nil, nil)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// MeHandler returns the authenticated user
func MeHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": user})
}
