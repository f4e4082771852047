package handlers

import (
	"net/http"

	"kanzlei_app_go/db"
	"kanzlei_app_go/middleware"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// notePolicy sanitizes rich-text note content before it is stored
var notePolicy = bluemonday.UGCPolicy()

// GetOrganizerHandler returns a case's tasks, deadlines and notes in one call
func GetOrganizerHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}
	caseID := c.Param("id")

	var tasks []models.Task
	if err := db.DB.Preload("Assignee").Where("case_id = ?", caseID).
		Order("due_date ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch tasks")
	}

	var deadlines []models.Deadline
	if err := db.DB.Where("case_id = ?", caseID).
		Order("due_date ASC").Find(&deadlines).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deadlines")
	}

	var notes []models.Note
	if err := db.DB.Where("case_id = ?", caseID).
		Order("created_at DESC").Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch notes")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tasks":     tasks,
		"deadlines": deadlines,
		"notes":     notes,
	})
}

// --- Tasks ---

// ListTasksHandler returns a case's tasks
func ListTasksHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	var tasks []models.Task
	if err := db.DB.Preload("Assignee").Where("case_id = ?", c.Param("id")).
		Order("due_date ASC, created_at ASC").Find(&tasks).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch tasks")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// CreateTaskHandler creates a task on a case
func CreateTaskHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	var task models.Task
	if err := c.Bind(&task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	task.ID = ""
	task.CaseID = c.Param("id")

	if task.Title == "" {
		return respondServiceError(c, services.NewValidationError("title", "is required"))
	}
	if task.Status != "" && !models.IsValidTaskStatus(task.Status) {
		return respondServiceError(c, services.NewValidationError("status", "invalid status"))
	}

	if err := db.DB.Create(&task).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create task")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "task", task.ID, task.Title,
		"Task created", nil, task)

	return c.JSON(http.StatusCreated, map[string]interface{}{"task": task})
}

// UpdateTaskHandler edits a task
func UpdateTaskHandler(c echo.Context) error {
	var task models.Task
	if err := db.DB.First(&task, "id = ? AND case_id = ?", c.Param("itemID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch task")
	}

	old := task

	if err := c.Bind(&task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	task.ID = old.ID
	task.CaseID = old.CaseID
	task.CreatedAt = old.CreatedAt

	if task.Title == "" {
		return respondServiceError(c, services.NewValidationError("title", "is required"))
	}
	if !models.IsValidTaskStatus(task.Status) {
		return respondServiceError(c, services.NewValidationError("status", "invalid status"))
	}

	if err := db.DB.Save(&task).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "task", task.ID, task.Title,
		"Task updated", old, task)

	return c.JSON(http.StatusOK, map[string]interface{}{"task": task})
}

// DeleteTaskHandler removes a task
func DeleteTaskHandler(c echo.Context) error {
	var task models.Task
	if err := db.DB.First(&task, "id = ? AND case_id = ?", c.Param("itemID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch task")
	}

	if err := db.DB.Delete(&task).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "task", task.ID, task.Title,
		"Task deleted", task, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Task deleted"})
}

// --- Deadlines ---

// ListDeadlinesHandler returns a case's deadlines
func ListDeadlinesHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	var deadlines []models.Deadline
	if err := db.DB.Where("case_id = ?", c.Param("id")).
		Order("due_date ASC").Find(&deadlines).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deadlines")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deadlines": deadlines})
}

// CreateDeadlineHandler creates a deadline on a case
func CreateDeadlineHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	var deadline models.Deadline
	if err := c.Bind(&deadline); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	deadline.ID = ""
	deadline.CaseID = c.Param("id")
	deadline.Case = nil
	deadline.ReminderSentAt = nil

	fields := map[string]string{}
	if deadline.Label == "" {
		fields["label"] = "is required"
	}
	if deadline.DueDate.IsZero() {
		fields["due_date"] = "is required"
	}
	if deadline.Priority != "" && !models.IsValidDeadlinePriority(deadline.Priority) {
		fields["priority"] = "must be HIGH, MEDIUM or LOW"
	}
	if len(fields) > 0 {
		return respondServiceError(c, &services.ValidationError{Fields: fields})
	}

	if err := db.DB.Create(&deadline).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create deadline")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "deadline", deadline.ID, deadline.Label,
		"Deadline created", nil, deadline)

	return c.JSON(http.StatusCreated, map[string]interface{}{"deadline": deadline})
}

// UpdateDeadlineHandler edits a deadline. Changing the due date re-arms the
// reminder.
func UpdateDeadlineHandler(c echo.Context) error {
	var deadline models.Deadline
	if err := db.DB.First(&deadline, "id = ? AND case_id = ?", c.Param("itemID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Deadline not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deadline")
	}

	old := deadline

	if err := c.Bind(&deadline); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	deadline.ID = old.ID
	deadline.CaseID = old.CaseID
	deadline.CreatedAt = old.CreatedAt
	deadline.Case = nil
	deadline.ReminderSentAt = old.ReminderSentAt

	if deadline.Label == "" {
		return respondServiceError(c, services.NewValidationError("label", "is required"))
	}
	if !models.IsValidDeadlinePriority(deadline.Priority) {
		return respondServiceError(c, services.NewValidationError("priority", "must be HIGH, MEDIUM or LOW"))
	}
	if !deadline.DueDate.Equal(old.DueDate) {
		deadline.ReminderSentAt = nil
	}

	if err := db.DB.Save(&deadline).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update deadline")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "deadline", deadline.ID, deadline.Label,
		"Deadline updated", old, deadline)

	return c.JSON(http.StatusOK, map[string]interface{}{"deadline": deadline})
}

// DeleteDeadlineHandler removes a deadline
func DeleteDeadlineHandler(c echo.Context) error {
	var deadline models.Deadline
	if err := db.DB.First(&deadline, "id = ? AND case_id = ?", c.Param("itemID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Deadline not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deadline")
	}

	if err := db.DB.Delete(&deadline).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete deadline")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "deadline", deadline.ID, deadline.Label,
		"Deadline deleted", deadline, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Deadline deleted"})
}

// --- Notes ---

// ListNotesHandler returns a case's notes, newest first
func ListNotesHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	var notes []models.Note
	if err := db.DB.Where("case_id = ?", c.Param("id")).
		Order("created_at DESC").Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch notes")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"notes": notes})
}

// CreateNoteHandler creates a note on a case; rich-text content is sanitized
func CreateNoteHandler(c echo.Context) error {
	if _, err := services.GetCase(db.DB, c.Param("id")); err != nil {
		return respondServiceError(c, err)
	}

	var note models.Note
	if err := c.Bind(&note); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	note.ID = ""
	note.CaseID = c.Param("id")

	if note.Title == "" {
		return respondServiceError(c, services.NewValidationError("title", "is required"))
	}
	note.Content = notePolicy.Sanitize(note.Content)

	if err := db.DB.Create(&note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create note")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "note", note.ID, note.Title,
		"Note created", nil, note)

	return c.JSON(http.StatusCreated, map[string]interface{}{"note": note})
}

// UpdateNoteHandler edits a note; content is re-sanitized
func UpdateNoteHandler(c echo.Context) error {
	var note models.Note
	if err := db.DB.First(&note, "id = ? AND case_id = ?", c.Param("itemID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Note not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch note")
	}

	old := note

	if err := c.Bind(&note); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	note.ID = old.ID
	note.CaseID = old.CaseID
	note.CreatedAt = old.CreatedAt

	if note.Title == "" {
		return respondServiceError(c, services.NewValidationError("title", "is required"))
	}
	note.Content = notePolicy.Sanitize(note.Content)

	if err := db.DB.Save(&note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update note")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "note", note.ID, note.Title,
		"Note updated", old, note)

	return c.JSON(http.StatusOK, map[string]interface{}{"note": note})
}

// DeleteNoteHandler removes a note
func DeleteNoteHandler(c echo.Context) error {
	var note models.Note
	if err := db.DB.First(&note, "id = ? AND case_id = ?", c.Param("itemID"), c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Note not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch note")
	}

	if err := db.DB.Delete(&note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete note")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "note", note.ID, note.Title,
		"Note deleted", note, nil)

	return c.JSON(http.StatusOK, map[string]string{"message": "Note deleted"})
}
