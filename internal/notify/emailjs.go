package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const emailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	// EmailJS checks the Origin header against the allowed domains of the account.
	Origin string
}

// EmailJS sends completion emails through the EmailJS REST API.
type EmailJS struct {
	cfg      EmailJSConfig
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

func NewEmailJS(cfg EmailJSConfig, log *slog.Logger) *EmailJS {
	return &EmailJS{
		cfg:      cfg,
		endpoint: emailJSEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

func (e *EmailJS) configured() bool {
	return e.cfg.ServiceID != "" && e.cfg.TemplateID != "" && e.cfg.PublicKey != ""
}

type emailJSRequest struct {
	ServiceID      string           `json:"service_id"`
	TemplateID     string           `json:"template_id"`
	UserID         string           `json:"user_id"`
	AccessToken    string           `json:"accessToken,omitempty"`
	TemplateParams CompletionNotice `json:"template_params"`
}

func (e *EmailJS) NotifyCompletion(ctx context.Context, n CompletionNotice) error {
	if !e.configured() {
		e.log.Debug("emailjs not configured, skipping", "email", n.PlayerEmail)
		return nil
	}

	body, err := json.Marshal(emailJSRequest{
		ServiceID:      e.cfg.ServiceID,
		TemplateID:     e.cfg.TemplateID,
		UserID:         e.cfg.PublicKey,
		AccessToken:    e.cfg.PrivateKey,
		TemplateParams: n,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.Origin != "" {
		req.Header.Set("Origin", e.cfg.Origin)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("emailjs: status %d: %s", resp.StatusCode, bytes.TrimSpace(text))
	}
	return nil
}

func (e *EmailJS) Close() error { return nil }
