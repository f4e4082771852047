package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"kanzlei_app_go/config"
	"kanzlei_app_go/db"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var validRoles = []string{"admin", "lawyer", "staff"}

func isValidRole(role string) bool {
	for _, r := range validRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ListUsersHandler returns all user accounts (admin only)
func ListUsersHandler(c echo.Context) error {
	var users []models.User
	if err := db.DB.Order("name ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch users")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"users": users})
}

// CreateUserRequest is the user creation payload
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUserHandler creates a user account (admin only)
func CreateUserHandler(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "is required"
	}
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if req.Role == "" {
		req.Role = "staff"
	}
	if !isValidRole(req.Role) {
		fields["role"] = "must be admin, lawyer or staff"
	}
	if len(fields) > 0 {
		return respondServiceError(c, &services.ValidationError{Fields: fields})
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hash,
		Role:     req.Role,
		IsActive: true,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, "Email is already in use")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "user", user.ID, user.Name,
		"User created", nil, user)

	// Notify the new user; failures are logged, not surfaced
	if cfg, ok := c.Get("config").(*config.Config); ok {
		services.SendEmailAsync(cfg, &services.Email{
			To:      []string{user.Email},
			Subject: "Your account is ready",
			TextBody: fmt.Sprintf("Hello %s,\n\nan account with the role %q has been created for you. "+
				"You can now sign in with this email address.\n", user.Name, user.Role),
		})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{"user": user})
}

// UpdateUserRequest is the user edit payload; absent fields stay unchanged
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUserHandler edits a user account. Admins can edit anyone; other
// users only their own profile, and never their role or active flag.
func UpdateUserHandler(c echo.Context) error {
	if !middleware.CanModifyUser(c, c.Param("id")) {
		return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
	}
	current := middleware.GetCurrentUser(c)
	isAdmin := current != nil && current.IsAdmin()

	var user models.User
	if err := db.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user")
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	old := user

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return respondServiceError(c, services.NewValidationError("name", "is required"))
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		if strings.TrimSpace(*req.Email) == "" {
			return respondServiceError(c, services.NewValidationError("email", "is required"))
		}
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		if !isAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Only admins can change roles")
		}
		if !isValidRole(*req.Role) {
			return respondServiceError(c, services.NewValidationError("role", "must be admin, lawyer or staff"))
		}
		user.Role = *req.Role
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return respondServiceError(c, services.NewValidationError("password", "must be at least 8 characters"))
		}
		hash, err := services.HashPassword(*req.Password)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
		}
		user.Password = hash
	}
	if req.IsActive != nil {
		if !isAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Only admins can change the active flag")
		}
		user.IsActive = *req.IsActive
	}

	if err := db.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user")
	}

	// Deactivation kills the user's sessions immediately
	if req.IsActive != nil && !*req.IsActive {
		_ = services.DeleteAllUserSessions(db.DB, user.ID)
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "user", user.ID, user.Name,
		"User updated", old, user)

	return c.JSON(http.StatusOK, map[string]interface{}{"user": user})
}

// DeleteUserHandler soft-deletes a user account (admin only)
func DeleteUserHandler(c echo.Context) error {
	current := middleware.GetCurrentUser(c)
	if current != nil && current.ID == c.Param("id") {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot delete your own account")
	}

	var user models.User
	if err := db.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch user")
	}

	if err := db.DB.Delete(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete user")
	}

	_ = services.DeleteAllUserSessions(db.DB, user.ID)

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "user", user.ID, user.Name,
		"User deleted", user, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "User deleted"})
}
