package jobs

import (
	"log"
	"time"

	"kanzlei_app_go/config"
	"kanzlei_app_go/models"
	"kanzlei_app_go/services"

	"gorm.io/gorm"
)

// SendDeadlineReminders checks for deadlines due soon and mails one digest
// to the office inbox
func SendDeadlineReminders(database *gorm.DB, cfg *config.Config) {
	log.Println("Starting deadline reminder job...")

	if cfg.OfficeInbox == "" {
		log.Println("No office inbox configured, skipping deadline reminders")
		return
	}

	// Window for deadlines due "tomorrow" (next 24-48 hours)
	now := time.Now().UTC()
	windowStart := now.Add(24 * time.Hour)
	windowEnd := now.Add(48 * time.Hour)

	var deadlines []models.Deadline

	// Find deadlines:
	// 1. Not done
	// 2. DueDate between windowStart and windowEnd
	// 3. ReminderSentAt is NULL
	err := database.Preload("Case").
		Where("done = ?", false).
		Where("due_date >= ? AND due_date <= ?", windowStart, windowEnd).
		Where("reminder_sent_at IS NULL").
		Order("due_date ASC").
		Find(&deadlines).Error

	if err != nil {
		log.Printf("Error fetching deadlines for reminders: %v", err)
		return
	}

	if len(deadlines) == 0 {
		log.Println("No deadlines due, reminder job completed")
		return
	}

	log.Printf("Found %d deadlines to remind", len(deadlines))

	email, err := services.BuildDeadlineReminderEmail(cfg.OfficeInbox, deadlines)
	if err != nil {
		log.Printf("Failed to build deadline reminder email: %v", err)
		return
	}

	if err := services.SendEmail(cfg, email); err != nil {
		log.Printf("Failed to send deadline reminder: %v", err)
		return
	}

	// Stamp ReminderSentAt so the next run skips these
	sentAt := time.Now().UTC()
	for i := range deadlines {
		if err := database.Model(&deadlines[i]).Update("reminder_sent_at", sentAt).Error; err != nil {
			log.Printf("Failed to stamp reminder for deadline %s: %v", deadlines[i].ID, err)
		}
	}

	log.Println("Deadline reminder job completed")
}
