package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"kanzlei_app_go/config"
	"kanzlei_app_go/models"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		log.Printf("Email logged successfully (development mode - not actually sent)")
		return nil
	}

	// Validate configuration
	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)

	fromAddress := fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom)

	params := &resend.SendEmailRequest{
		From:    fromAddress,
		To:      email.To,
		Subject: email.Subject,
	}

	// Set body (prefer HTML if available)
	if email.HTMLBody != "" {
		params.Html = email.HTMLBody
	}
	if email.TextBody != "" {
		params.Text = email.TextBody
	}

	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// SendEmailAsync sends an email asynchronously using a goroutine
// This is the recommended method for sending emails in handlers to avoid blocking HTTP responses
func SendEmailAsync(cfg *config.Config, email *Email) {
	// Create a copy of the email to avoid race conditions
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(cfg *config.Config, email *Email) {
		if err := SendEmail(cfg, email); err != nil {
			log.Printf("Error sending async email: %v", err)
		}
	}(cfg, emailCopy)
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\nEMAIL (Development Mode - Not Actually Sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n--- TEXT BODY ---\n%s", email.TextBody)
	log.Printf("\n--- HTML BODY (first 500 chars) ---\n%s...", truncate(email.HTMLBody, 500))
	log.Printf("%s\n", separator)
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

var deadlineReminderTemplate = template.Must(template.New("deadline_reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1a1a1a;">
	<h2>Upcoming Deadlines</h2>
	<p>The following deadlines are due within the next 48 hours:</p>
	<table border="0" cellpadding="6" cellspacing="0" style="border-collapse: collapse;">
		<tr style="background: #f0f0f0;">
			<th align="left">Case</th>
			<th align="left">Deadline</th>
			<th align="left">Due</th>
			<th align="left">Priority</th>
		</tr>
		{{range .Items}}
		<tr style="border-bottom: 1px solid #ddd;">
			<td>{{.FileNumber}}</td>
			<td>{{.Label}}</td>
			<td>{{.DueDate}}</td>
			<td>{{.Priority}}</td>
		</tr>
		{{end}}
	</table>
	<p style="color: #777; font-size: 12px;">This is an automated reminder.</p>
</body>
</html>`))

// DeadlineReminderItem is a single row in the reminder email
type DeadlineReminderItem struct {
	FileNumber string
	Label      string
	DueDate    string
	Priority   string
}

// BuildDeadlineReminderEmail creates the daily deadline reminder for the office inbox
func BuildDeadlineReminderEmail(toEmail string, deadlines []models.Deadline) (*Email, error) {
	items := make([]DeadlineReminderItem, 0, len(deadlines))
	var textLines []string
	for i := range deadlines {
		d := &deadlines[i]
		fileNumber := ""
		if d.Case != nil {
			fileNumber = d.Case.FileNumber
		}
		items = append(items, DeadlineReminderItem{
			FileNumber: fileNumber,
			Label:      d.Label,
			DueDate:    d.DueDate.Format("02.01.2006"),
			Priority:   d.Priority,
		})
		textLines = append(textLines, fmt.Sprintf("- %s: %s (due %s, priority %s)",
			fileNumber, d.Label, d.DueDate.Format("02.01.2006"), d.Priority))
	}

	var buf bytes.Buffer
	if err := deadlineReminderTemplate.Execute(&buf, map[string]interface{}{"Items": items}); err != nil {
		return nil, fmt.Errorf("failed to render reminder email: %w", err)
	}

	textBody := fmt.Sprintf("Upcoming deadlines (next 48 hours):\n\n%s\n", strings.Join(textLines, "\n"))

	return &Email{
		To:       []string{toEmail},
		Subject:  fmt.Sprintf("Deadline reminder - %d due by %s", len(deadlines), time.Now().Add(48*time.Hour).Format("02.01.2006")),
		HTMLBody: buf.String(),
		TextBody: textBody,
	}, nil
}
