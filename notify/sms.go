// Package notify sends rider SMS and operations-channel messages.
package notify

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names understood by Messenger.Send.
const (
	TemplateRideTerminated       = "ride_terminated"
	TemplateRideTerminatedUnpaid = "ride_terminated_unpaid"
	TemplateHelmetLost           = "helmet_lost"
)

type MessengerConfig struct {
	Endpoint   string
	Identifier string
	Secret     string
	Sender     string
	// TestMode asks the provider not to actually deliver. Set outside prod.
	TestMode bool
}

// Messenger renders a message template and submits it to the SMS provider as
// a form POST, the provider's only supported transport.
type Messenger struct {
	cfg       MessengerConfig
	hc        *http.Client
	templates *template.Template
	logger    *slog.Logger
}

func NewMessenger(cfg MessengerConfig, logger *slog.Logger) (*Messenger, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse sms templates: %w", err)
	}
	return &Messenger{
		cfg:       cfg,
		hc:        &http.Client{Timeout: 10 * time.Second},
		templates: tmpl,
		logger:    logger,
	}, nil
}

type providerResponse struct {
	ResultCode int    `json:"result_code"`
	Message    string `json:"message"`
}

// Send renders the named template with vars and delivers it to phone.
// The returned bool is the provider's delivered flag.
func (m *Messenger) Send(ctx context.Context, phone, templateName string, vars map[string]any) (bool, error) {
	var msg strings.Builder
	if err := m.templates.ExecuteTemplate(&msg, templateName+".tmpl", vars); err != nil {
		return false, fmt.Errorf("render %s: %w", templateName, err)
	}

	form := url.Values{}
	form.Set("user_id", m.cfg.Identifier)
	form.Set("key", m.cfg.Secret)
	form.Set("sender", m.cfg.Sender)
	form.Set("receiver", localizePhone(phone))
	form.Set("msg", msg.String())
	if m.cfg.TestMode {
		form.Set("testmode_yn", "Y")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.hc.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var pr providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return false, fmt.Errorf("decode provider response: %w", err)
	}
	if pr.ResultCode != 1 {
		m.logger.Warn("sms not delivered", "phone", phone, "template", templateName, "providerMessage", pr.Message)
		return false, nil
	}
	return true, nil
}

// localizePhone turns a +82-prefixed number into the local 0-prefixed form
// the provider expects.
func localizePhone(phone string) string {
	if strings.HasPrefix(phone, "+82") {
		return "0" + phone[3:]
	}
	return phone
}
