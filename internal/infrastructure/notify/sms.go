package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/errors"
)

// SMSConfig contains configuration for the SMS gateway client
type SMSConfig struct {
	BaseURL      string
	APIKey       string
	From         string
	RateLimitRPS int
	Timeout      time.Duration
}

// SMSClient delivers alerts through a form-encoded SMS gateway. Sends are
// rate limited so a broad alert run cannot trip the gateway's abuse controls.
type SMSClient struct {
	config      SMSConfig
	client      *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewSMSClient creates an SMS gateway client
func NewSMSClient(config SMSConfig, logger *zap.Logger) *SMSClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimitRPS == 0 {
		config.RateLimitRPS = 5
	}

	return &SMSClient{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.RateLimitRPS*2),
		logger:      logger,
	}
}

// SendSMS submits one message to the gateway, waiting on the rate limiter
// first.
func (c *SMSClient) SendSMS(ctx context.Context, to, body string) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return errors.NewTimeoutError("sms rate limit wait").WithCause(err)
	}

	form := url.Values{}
	form.Set("from", c.config.From)
	form.Set("to", to)
	form.Set("body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/sms", strings.NewReader(form.Encode()))
	if err != nil {
		return errors.NewInternalError("failed to build sms request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewExternalError("SMS_GATEWAY_UNREACHABLE", "sms gateway request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewDeliveryError("sms",
			fmt.Sprintf("sms gateway returned status %d", resp.StatusCode))
	}

	c.logger.Debug("sms sent", zap.String("to", to))
	return nil
}
