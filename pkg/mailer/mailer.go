package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Mailer sends transactional email (welcome emails, payment receipts).
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Config holds configuration for the HTTP mail gateway.
type Config struct {
	APIURL     string
	APIKey     string
	FromName   string
	FromEmail  string
	ReplyTo    string // optional
	TimeoutSec int    // defaults to 30
}

// HTTPMailer implements Mailer against a transactional email HTTP API
// (Brevo-style JSON POST with an api-key header).
type HTTPMailer struct {
	cfg    Config
	client *http.Client
}

// NewHTTPMailer creates a new HTTP mail gateway client.
func NewHTTPMailer(cfg Config) *HTTPMailer {
	timeout := 30 * time.Second
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}
	return &HTTPMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	ReplyTo     *address  `json:"replyTo,omitempty"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Send delivers one email through the gateway.
func (m *HTTPMailer) Send(to, subject, htmlBody string) error {
	req := sendRequest{
		Sender:      address{Name: m.cfg.FromName, Email: m.cfg.FromEmail},
		To:          []address{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
	}
	if m.cfg.ReplyTo != "" {
		req.ReplyTo = &address{Email: m.cfg.ReplyTo}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, m.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", m.cfg.APIKey)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mail gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		var apiErr sendResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("mail gateway error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("mail gateway error (%d)", resp.StatusCode)
	}

	return nil
}

// LogMailer is the development-mode mailer: it only logs, nothing is sent.
type LogMailer struct{}

// NewLogMailer creates a mailer that logs instead of sending.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs the email that would have been delivered.
func (m *LogMailer) Send(to, subject, htmlBody string) error {
	log.Printf("MAIL (dev mode, not sent) to=%s subject=%q bytes=%d", to, subject, len(htmlBody))
	return nil
}
