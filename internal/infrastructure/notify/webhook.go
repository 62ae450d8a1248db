package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/errors"
)

// WebhookConfig contains configuration for the webhook poster
type WebhookConfig struct {
	SigningSecret string
	Timeout       time.Duration
	RateLimitRPS  int
}

// WebhookClient posts alert payloads to user-configured URLs. Payloads are
// signed with HMAC-SHA256 so receivers can verify origin.
type WebhookClient struct {
	config      WebhookConfig
	client      *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewWebhookClient creates a signed webhook poster
func NewWebhookClient(config WebhookConfig, logger *zap.Logger) *WebhookClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 10
	}

	return &WebhookClient{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.RateLimitRPS*2),
		logger:      logger,
	}
}

// SendWebhook posts the payload as JSON to the given URL.
func (c *WebhookClient) SendWebhook(ctx context.Context, url string, payload interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return errors.NewTimeoutError("webhook rate limit wait").WithCause(err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewInternalError("failed to marshal webhook payload").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.NewInternalError("failed to build webhook request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "compliance-risk-backend/1.0")

	// Add signature for authentication
	if c.config.SigningSecret != "" {
		req.Header.Set("X-Signature-SHA256", c.generateSignature(body))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewExternalError("WEBHOOK_UNREACHABLE", "webhook request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewDeliveryError("webhook",
			fmt.Sprintf("webhook endpoint returned status %d", resp.StatusCode))
	}

	c.logger.Debug("webhook delivered", zap.String("url", url))
	return nil
}

func (c *WebhookClient) generateSignature(payload []byte) string {
	h := hmac.New(sha256.New, []byte(c.config.SigningSecret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
