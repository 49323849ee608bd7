package notify

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"plutus-education/certificate-runner/internal/certificate"
)

// Message is the subject/body pair sent to every recipient. Both parts may
// contain a {name} placeholder substituted per student.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DefaultMessage returns the stock certificate notification.
func DefaultMessage() Message {
	return Message{
		Subject: "Certificate of Participation",
		Body: "Dear {name},\n\nThank you for participating in our event. " +
			"Please find attached your certificate of participation.\n\n" +
			"Best regards,\nPlutus Education",
	}
}

// RenderFor substitutes the student name into both parts.
func (m Message) RenderFor(name string) (subject, body string) {
	return strings.ReplaceAll(m.Subject, "{name}", name),
		strings.ReplaceAll(m.Body, "{name}", name)
}

// SendFailure records one recipient that could not be notified.
type SendFailure struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// SendReport summarizes a notification pass.
type SendReport struct {
	Sent     int           `json:"sent"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Failures []SendFailure `json:"failures,omitempty"`
}

// Dispatcher emails generated certificates to their recipients.
type Dispatcher struct {
	mailer  Mailer
	message Message
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher around a mailer.
func NewDispatcher(mailer Mailer, message Message, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, message: message, logger: logger}
}

// SendCertificates sends one email per successful batch row, sequentially
// and in roster order. A recipient failure is logged and counted, never
// retried, and never stops the pass. Rows that failed generation, or whose
// output file has gone missing, are skipped with a warning.
func (d *Dispatcher) SendCertificates(ctx context.Context, batch *certificate.BatchResult) *SendReport {
	report := &SendReport{}
	for _, row := range batch.Results {
		if !row.Succeeded() {
			report.Skipped++
			continue
		}

		data, err := os.ReadFile(row.OutputPath)
		if err != nil {
			report.Skipped++
			d.logger.Warn("Certificate file missing, skipping recipient",
				zap.Int("row", row.Row),
				zap.String("path", row.OutputPath))
			continue
		}

		subject, body := d.message.RenderFor(row.Name)
		email := &Email{
			To:      row.Email,
			Subject: subject,
			Body:    body,
			Attachments: []Attachment{{
				Name:        filepath.Base(row.OutputPath),
				Data:        data,
				ContentType: "application/pdf",
			}},
		}

		if err := d.mailer.Send(ctx, email); err != nil {
			report.Failed++
			report.Failures = append(report.Failures, SendFailure{
				Row:    row.Row,
				Name:   row.Name,
				Email:  row.Email,
				Reason: err.Error(),
			})
			d.logger.Error("Failed to notify recipient",
				zap.Int("row", row.Row),
				zap.String("email", row.Email),
				zap.Error(err))
			continue
		}
		report.Sent++
	}

	d.logger.Info("Notification pass completed",
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report
}
