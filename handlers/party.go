package handlers

import (
	"net/http"
	"strings"

	"kanzlei_app_go/db"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// validatePartyDetails checks the fields shared by all party kinds
func validatePartyDetails(p *models.PartyDetails) map[string]string {
	fields := map[string]string{}

	if p.PartyType == "" {
		p.PartyType = models.PartyTypePerson
	}
	if !models.IsValidPartyType(p.PartyType) {
		fields["party_type"] = "must be PERSON, COMPANY or INSURER"
	}

	if p.IsOrganization() {
		if strings.TrimSpace(p.CompanyName) == "" {
			fields["company_name"] = "is required for organizations"
		}
	} else {
		if strings.TrimSpace(p.LastName) == "" {
			fields["last_name"] = "is required for persons"
		}
	}

	return fields
}

// ListClientsHandler returns all clients, optionally filtered by a name query
func ListClientsHandler(c echo.Context) error {
	query := db.DB.Model(&models.Client{})
	if q := c.QueryParam("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR company_name LIKE ?", like, like, like)
	}

	var clients []models.Client
	if err := query.Order("last_name ASC, company_name ASC").Find(&clients).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch clients")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"clients": clients})
}

// CreateClientHandler creates a client master-data record
func CreateClientHandler(c echo.Context) error {
	var client models.Client
	if err := c.Bind(&client); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	client.ID = ""

	if fields := validatePartyDetails(&client.PartyDetails); len(fields) > 0 {
		return respondServiceError(c, &services.ValidationError{Fields: fields})
	}

	if err := db.DB.Create(&client).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create client")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "client", client.ID, client.DisplayName(),
		"Client created", nil, client)

	return c.JSON(http.StatusCreated, map[string]interface{}{"client": client})
}

// GetClientHandler returns a single client
func GetClientHandler(c echo.Context) error {
	var client models.Client
	if err := db.DB.First(&client, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Client not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch client")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"client": client})
}

// UpdateClientHandler edits a client record. Live edits never touch frozen
// case snapshots.
func UpdateClientHandler(c echo.Context) error {
	var client models.Client
	if err := db.DB.First(&client, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Client not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch client")
	}

	old := client

	if err := c.Bind(&client); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	client.ID = old.ID
	client.CreatedAt = old.CreatedAt

	if fields := validatePartyDetails(&client.PartyDetails); len(fields) > 0 {
		return respondServiceError(c, &services.ValidationError{Fields: fields})
	}

	if err := db.DB.Save(&client).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update client")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "client", client.ID, client.DisplayName(),
		"Client updated", old, client)

	return c.JSON(http.StatusOK, map[string]interface{}{"client": client})
}

// DeleteClientHandler soft-deletes a client unless an active case references it
func DeleteClientHandler(c echo.Context) error {
	var client models.Client
	if err := db.DB.First(&client, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Client not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch client")
	}

	var count int64
	if err := db.DB.Model(&models.Case{}).
		Where("client_id = ? AND status IN ?", client.ID,
			[]string{models.CaseStatusOpen, models.CaseStatusInProgress}).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check client usage")
	}
	if count > 0 {
		return echo.NewHTTPError(http.StatusConflict, "Client is referenced by active cases")
	}

	if err := db.DB.Delete(&client).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete client")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "client", client.ID, client.DisplayName(),
		"Client deleted", client, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Client deleted"})
}

// ListOpponentsHandler returns all opponents, optionally filtered by name
func ListOpponentsHandler(c echo.Context) error {
	query := db.DB.Model(&models.Opponent{})
	if q := c.QueryParam("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ? OR company_name LIKE ?", like, like, like)
	}

	var opponents []models.Opponent
	if err := query.Order("last_name ASC, company_name ASC").Find(&opponents).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch opponents")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"opponents": opponents})
}

// CreateOpponentHandler creates an opponent master-data record
func CreateOpponentHandler(c echo.Context) error {
	var opponent models.Opponent
	if err := c.Bind(&opponent); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	opponent.ID = ""

	if fields := validatePartyDetails(&opponent.PartyDetails); len(fields) > 0 {
		return respondServiceError(c, &services.ValidationError{Fields: fields})
	}

	if err := db.DB.Create(&opponent).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create opponent")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "opponent", opponent.ID, opponent.DisplayName(),
		"Opponent created", nil, opponent)

	return c.JSON(http.StatusCreated, map[string]interface{}{"opponent": opponent})
}

// GetOpponentHandler returns a single opponent
func GetOpponentHandler(c echo.Context) error {
	var opponent models.Opponent
	if err := db.DB.First(&opponent, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Opponent not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch opponent")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"opponent": opponent})
}

// UpdateOpponentHandler edits an opponent record
func UpdateOpponentHandler(c echo.Context) error {
	var opponent models.Opponent
	if err := db.DB.First(&opponent, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Opponent not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch opponent")
	}

	old := opponent

	if err := c.Bind(&opponent); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	opponent.ID = old.ID
	opponent.CreatedAt = old.CreatedAt

	if fields := validatePartyDetails(&opponent.PartyDetails); len(fields) > 0 {
		return respondServiceError(c, &services.ValidationError{Fields: fields})
	}

	if err := db.DB.Save(&opponent).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update opponent")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "opponent", opponent.ID, opponent.DisplayName(),
		"Opponent updated", old, opponent)

	return c.JSON(http.StatusOK, map[string]interface{}{"opponent": opponent})
}

// DeleteOpponentHandler soft-deletes an opponent unless an active case
// references it
func DeleteOpponentHandler(c echo.Context) error {
	var opponent models.Opponent
	if err := db.DB.First(&opponent, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Opponent not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch opponent")
	}

	var count int64
	if err := db.DB.Model(&models.Case{}).
		Where("opponent_id = ? AND status IN ?", opponent.ID,
			[]string{models.CaseStatusOpen, models.CaseStatusInProgress}).
		Count(&count).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check opponent usage")
	}
	if count > 0 {
		return echo.NewHTTPError(http.StatusConflict, "Opponent is referenced by active cases")
	}

	if err := db.DB.Delete(&opponent).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete opponent")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "opponent", opponent.ID, opponent.DisplayName(),
		"Opponent deleted", opponent, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Opponent deleted"})
}

// AddressBookSearchHandler searches clients and opponents in one pass for the
// address-book view
func AddressBookSearchHandler(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter 'q' is required")
	}
	like := "%" + q + "%"

	var clients []models.Client
	if err := db.DB.
		Where("first_name LIKE ? OR last_name LIKE ? OR company_name LIKE ? OR city LIKE ? OR email LIKE ?",
			like, like, like, like, like).
		Order("last_name ASC, company_name ASC").
		Limit(50).
		Find(&clients).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Search failed")
	}

	var opponents []models.Opponent
	if err := db.DB.
		Where("first_name LIKE ? OR last_name LIKE ? OR company_name LIKE ? OR city LIKE ? OR email LIKE ?",
			like, like, like, like, like).
		Order("last_name ASC, company_name ASC").
		Limit(50).
		Find(&opponents).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Search failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"clients":   clients,
		"opponents": opponents,
	})
}
