package ticketing

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

// RESTTrackerConfig contains configuration for a generic tracker endpoint
type RESTTrackerConfig struct {
	Name      string
	URL       string
	AuthToken string
	Timeout   time.Duration
}

// RESTTracker posts tickets to any JSON endpoint that accepts a
// {summary, description} body and answers with an {id}. Covers the internal
// ticketing bridges that are not Jira.
type RESTTracker struct {
	config RESTTrackerConfig
	client *http.Client
	logger *zap.Logger
}

// NewRESTTracker creates a generic REST tracker client
func NewRESTTracker(config RESTTrackerConfig, logger *zap.Logger) *RESTTracker {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &RESTTracker{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// Name identifies this tracker in escalation results and logs.
func (c *RESTTracker) Name() string {
	return c.config.Name
}

type ticketRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

type ticketResponse struct {
	ID string `json:"id"`
}

// CreateTicket posts the ticket and returns the endpoint-assigned ID.
func (c *RESTTracker) CreateTicket(ctx context.Context, summary, description string) (string, error) {
	payload, err := json.Marshal(ticketRequest{Summary: summary, Description: description})
	if err != nil {
		return "", errors.NewInternalError("failed to marshal ticket").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return "", errors.NewInternalError("failed to build ticket request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.NewExternalError("TRACKER_UNREACHABLE",
			fmt.Sprintf("tracker %s request failed", c.config.Name)).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewEscalationError(c.config.Name,
			fmt.Sprintf("tracker returned status %d", resp.StatusCode))
	}

	var created ticketResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", errors.NewEscalationError(c.config.Name, "failed to decode tracker response").WithCause(err)
	}

	c.logger.Info("ticket created",
		zap.String("tracker", c.config.Name),
		zap.String("ticket_id", created.ID))
	return created.ID, nil
}
