package notify

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
}

// Email is one outbound message.
type Email struct {
	To          string       `json:"to"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file attached to an email.
type Attachment struct {
	Name        string `json:"name"`
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

// Mailer sends one prepared email per call.
type Mailer interface {
	Send(ctx context.Context, email *Email) error
}

// SMTPMailer delivers mail over plain SMTP with AUTH PLAIN.
type SMTPMailer struct {
	config EmailConfig
	logger *zap.Logger
}

// NewSMTPMailer creates an SMTP-backed mailer.
func NewSMTPMailer(config EmailConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{config: config, logger: logger}
}

// Send delivers a single email. The context is honored before dialing; the
// SMTP exchange itself is bounded by the server.
func (m *SMTPMailer) Send(ctx context.Context, email *Email) error {
	if email.To == "" {
		return fmt.Errorf("no recipient specified")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.logger.Info("Sending email",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))

	msg := buildMessage(m.config, email)
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	if err := smtp.SendMail(addr, auth, m.config.FromAddress, []string{email.To}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("Email sent", zap.String("to", email.To))
	return nil
}

// buildMessage assembles a MIME message, multipart when attachments are
// present, with base64 transfer encoding for attachment bodies. Header
// values come from the roster, so they are stripped of line breaks and
// word-encoded before interpolation.
func buildMessage(config EmailConfig, email *Email) []byte {
	var buf bytes.Buffer
	boundary := randomBoundary()

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", encodeHeaderWord(config.FromName), sanitizeHeader(config.FromAddress))
	fmt.Fprintf(&buf, "To: %s\r\n", sanitizeHeader(email.To))
	fmt.Fprintf(&buf, "Subject: %s\r\n", encodeHeaderWord(email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(email.Attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(email.Body)
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(email.Body)
	buf.WriteString("\r\n")

	for _, att := range email.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; name=%q\r\n", contentType, att.Name)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", att.Name)
		writeBase64(&buf, att.Data)
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

// randomBoundary returns a part separator that cannot be predicted from the
// message content.
func randomBoundary() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return "=_" + hex.EncodeToString(b)
}

// sanitizeHeader strips line breaks so roster-sourced values cannot inject
// additional headers.
func sanitizeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r", "")
	return strings.ReplaceAll(v, "\n", "")
}

// encodeHeaderWord RFC 2047 encodes a header value when it leaves ASCII.
func encodeHeaderWord(v string) string {
	return mime.QEncoding.Encode("utf-8", sanitizeHeader(v))
}

// writeBase64 encodes data with the 76-column line breaks MIME requires.
func writeBase64(buf *bytes.Buffer, data []byte) {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		buf.WriteString(encoded[i:end])
		buf.WriteString("\r\n")
	}
}
