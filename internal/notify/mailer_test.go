package notify

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"plutus-education/certificate-runner/internal/certificate"
)

// MockMailer is a mock implementation of the Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email *Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func TestMessageRenderFor(t *testing.T) {
	msg := Message{
		Subject: "Certificate for {name}",
		Body:    "Dear {name},\nCongratulations {name}!",
	}
	subject, body := msg.RenderFor("Jane Doe")
	assert.Equal(t, "Certificate for Jane Doe", subject)
	assert.Equal(t, "Dear Jane Doe,\nCongratulations Jane Doe!", body)
}

func TestDefaultMessage(t *testing.T) {
	subject, body := DefaultMessage().RenderFor("Jane")
	assert.Equal(t, "Certificate of Participation", subject)
	assert.Contains(t, body, "Dear Jane,")
	assert.Contains(t, body, "Plutus Education")
}

func TestBuildMessagePlain(t *testing.T) {
	cfg := EmailConfig{FromAddress: "certs@example.com", FromName: "Plutus Education"}
	msg := string(buildMessage(cfg, &Email{
		To:      "jane@example.com",
		Subject: "Hello",
		Body:    "Plain body",
	}))

	assert.Contains(t, msg, "From: Plutus Education <certs@example.com>\r\n")
	assert.Contains(t, msg, "To: jane@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=utf-8\r\n")
	assert.Contains(t, msg, "Plain body")
	assert.NotContains(t, msg, "multipart/mixed")
}

func TestBuildMessageWithAttachment(t *testing.T) {
	cfg := EmailConfig{FromAddress: "certs@example.com", FromName: "Plutus Education"}
	payload := []byte("%PDF-1.4 fake certificate bytes")
	msg := string(buildMessage(cfg, &Email{
		To:      "jane@example.com",
		Subject: "Your certificate",
		Body:    "See attached.",
		Attachments: []Attachment{{
			Name:        "PLUTUS-001.pdf",
			Data:        payload,
			ContentType: "application/pdf",
		}},
	}))

	assert.Contains(t, msg, "multipart/mixed")
	assert.Contains(t, msg, `Content-Type: application/pdf; name="PLUTUS-001.pdf"`)
	assert.Contains(t, msg, `Content-Disposition: attachment; filename="PLUTUS-001.pdf"`)
	assert.Contains(t, msg, "Content-Transfer-Encoding: base64")

	encoded := base64.StdEncoding.EncodeToString(payload)
	assert.Contains(t, strings.ReplaceAll(msg, "\r\n", ""), encoded)
}

func messageBoundary(t *testing.T, msg string) string {
	t.Helper()
	const marker = `boundary="`
	i := strings.Index(msg, marker)
	require.GreaterOrEqual(t, i, 0, "no multipart boundary declared")
	rest := msg[i+len(marker):]
	j := strings.Index(rest, `"`)
	require.GreaterOrEqual(t, j, 0)
	return rest[:j]
}

func TestBuildMessageBoundaryIsFresh(t *testing.T) {
	cfg := EmailConfig{FromAddress: "certs@example.com", FromName: "Plutus Education"}
	email := &Email{
		To:          "jane@example.com",
		Subject:     "Your certificate",
		Body:        "See attached.",
		Attachments: []Attachment{{Name: "a.pdf", Data: []byte("x"), ContentType: "application/pdf"}},
	}

	first := string(buildMessage(cfg, email))
	second := string(buildMessage(cfg, email))

	b1 := messageBoundary(t, first)
	b2 := messageBoundary(t, second)
	assert.NotEqual(t, b1, b2, "each message gets its own part separator")
	assert.Contains(t, first, "--"+b1+"--\r\n")
	assert.NotContains(t, email.Body, b1)
}

func TestBuildMessageHeaderSafety(t *testing.T) {
	cfg := EmailConfig{FromAddress: "certs@example.com", FromName: "Plutus Education"}

	// Line breaks in roster-sourced values must not become extra headers.
	injected := string(buildMessage(cfg, &Email{
		To:      "jane@example.com\r\nBcc: eve@example.com",
		Subject: "Hello\r\nBcc: eve@example.com",
		Body:    "Body",
	}))
	assert.NotContains(t, injected, "\r\nBcc:")
	assert.Contains(t, injected, "To: jane@example.comBcc: eve@example.com\r\n")

	// Non-ASCII subjects are word-encoded.
	accented := string(buildMessage(cfg, &Email{
		To:      "jozef@example.com",
		Subject: "Certificate for Józef",
		Body:    "Body",
	}))
	assert.Contains(t, accented, "Subject: =?utf-8?q?")
	assert.NotContains(t, accented, "Subject: Certificate for Józef")
}

func writeFakeCertificate(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 "+name), 0o644))
	return path
}

func TestSendCertificates(t *testing.T) {
	dir := t.TempDir()
	batch := &certificate.BatchResult{
		Results: []certificate.RowResult{
			{Row: 1, Name: "Jane", Email: "jane@example.com", OutputPath: writeFakeCertificate(t, dir, "PLUTUS-001.pdf")},
			{Row: 2, Name: "Bob", Email: "bob@example.com", Error: "missing required field"},
			{Row: 3, Name: "Eve", Email: "eve@example.com", OutputPath: writeFakeCertificate(t, dir, "PLUTUS-003.pdf")},
		},
	}

	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return e.To == "jane@example.com" &&
			strings.Contains(e.Body, "Dear Jane,") &&
			len(e.Attachments) == 1 &&
			e.Attachments[0].Name == "PLUTUS-001.pdf"
	})).Return(nil).Once()
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return e.To == "eve@example.com"
	})).Return(nil).Once()

	d := NewDispatcher(mailer, DefaultMessage(), zap.NewNop())
	report := d.SendCertificates(context.Background(), batch)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	mailer.AssertExpectations(t)
}

func TestSendCertificatesContinuesPastFailure(t *testing.T) {
	dir := t.TempDir()
	batch := &certificate.BatchResult{
		Results: []certificate.RowResult{
			{Row: 1, Name: "Jane", Email: "jane@example.com", OutputPath: writeFakeCertificate(t, dir, "a.pdf")},
			{Row: 2, Name: "Bob", Email: "bob@example.com", OutputPath: writeFakeCertificate(t, dir, "b.pdf")},
		},
	}

	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return e.To == "jane@example.com"
	})).Return(assert.AnError).Once()
	mailer.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
		return e.To == "bob@example.com"
	})).Return(nil).Once()

	d := NewDispatcher(mailer, DefaultMessage(), zap.NewNop())
	report := d.SendCertificates(context.Background(), batch)

	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "jane@example.com", report.Failures[0].Email)
	mailer.AssertExpectations(t)
}

func TestSendCertificatesSkipsMissingFile(t *testing.T) {
	batch := &certificate.BatchResult{
		Results: []certificate.RowResult{
			{Row: 1, Name: "Jane", Email: "jane@example.com", OutputPath: "/nonexistent/a.pdf"},
		},
	}

	mailer := new(MockMailer)
	d := NewDispatcher(mailer, DefaultMessage(), zap.NewNop())
	report := d.SendCertificates(context.Background(), batch)

	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 1, report.Skipped)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
