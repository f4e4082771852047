package handlers

import (
	"net/http"
	"sort"
	"time"

	"kanzlei_app_go/db"
	"kanzlei_app_go/models"

	"github.com/labstack/echo/v4"
)

// DashboardHandler returns the start-page aggregates: open task count,
// deadlines due today and the prioritized deadline list
func DashboardHandler(c echo.Context) error {
	var openTasks int64
	if err := db.DB.Model(&models.Task{}).
		Where("status <> ?", models.TaskStatusDone).
		Count(&openTasks).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count open tasks")
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24 * time.Hour)

	var dueToday []models.Deadline
	if err := db.DB.Preload("Case").
		Where("done = ?", false).
		Where("due_date >= ? AND due_date < ?", todayStart, todayEnd).
		Order("due_date ASC").
		Find(&dueToday).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch today's deadlines")
	}

	var upcoming []models.Deadline
	if err := db.DB.Preload("Case").
		Where("done = ?", false).
		Order("due_date ASC").
		Limit(100).
		Find(&upcoming).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch deadlines")
	}

	// Priority first, then due date within the same priority
	sort.SliceStable(upcoming, func(i, j int) bool {
		if upcoming[i].PriorityRank() != upcoming[j].PriorityRank() {
			return upcoming[i].PriorityRank() < upcoming[j].PriorityRank()
		}
		return upcoming[i].DueDate.Before(upcoming[j].DueDate)
	})

	var activeCases int64
	if err := db.DB.Model(&models.Case{}).
		Where("status IN ?", []string{models.CaseStatusOpen, models.CaseStatusInProgress}).
		Count(&activeCases).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count cases")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"open_task_count":       openTasks,
		"active_case_count":     activeCases,
		"deadlines_today":       dueToday,
		"prioritized_deadlines": upcoming,
	})
}
