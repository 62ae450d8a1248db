// Package notify holds the concrete channel senders behind the alert
// dispatcher: an HTTP mail API client, a rate-limited SMS gateway client, a
// signed webhook poster, and a WebSocket hub for live in-app delivery.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/errors"
)

// EmailConfig contains configuration for the mail API client
type EmailConfig struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

// EmailClient delivers alerts through a JSON mail API.
type EmailClient struct {
	config EmailConfig
	client *http.Client
	logger *zap.Logger
}

// NewEmailClient creates a mail API client
func NewEmailClient(config EmailConfig, logger *zap.Logger) *EmailClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &EmailClient{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
	}
}

type emailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// SendEmail posts one message to the mail API.
func (c *EmailClient) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := emailMessage{
		From:    c.config.From,
		To:      to,
		Subject: subject,
		Text:    body,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.NewInternalError("failed to marshal email").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return errors.NewInternalError("failed to build email request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewExternalError("MAIL_API_UNREACHABLE", "mail API request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewDeliveryError("email",
			fmt.Sprintf("mail API returned status %d", resp.StatusCode))
	}

	c.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
