// Package ticketing holds the issue tracker clients used for escalation.
package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/errors"
)

// JiraConfig contains configuration for the Jira Cloud client
type JiraConfig struct {
	BaseURL    string
	ProjectKey string
	Email      string
	APIToken   string
	IssueType  string
	Timeout    time.Duration
}

// JiraClient creates issues through the Jira Cloud REST API.
type JiraClient struct {
	config JiraConfig
	client *http.Client
	logger *zap.Logger
}

// NewJiraClient creates a Jira Cloud client
func NewJiraClient(config JiraConfig, logger *zap.Logger) *JiraClient {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.IssueType == "" {
		config.IssueType = "Task"
	}

	return &JiraClient{
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

// Name identifies this tracker in escalation results and logs.
func (c *JiraClient) Name() string {
	return "jira"
}

type jiraIssueRequest struct {
	Fields jiraIssueFields `json:"fields"`
}

type jiraIssueFields struct {
	Project     jiraProject   `json:"project"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	IssueType   jiraIssueType `json:"issuetype"`
}

type jiraProject struct {
	Key string `json:"key"`
}

type jiraIssueType struct {
	Name string `json:"name"`
}

type jiraIssueResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// CreateTicket opens a Jira issue and returns its key.
func (c *JiraClient) CreateTicket(ctx context.Context, summary, description string) (string, error) {
	issue := jiraIssueRequest{
		Fields: jiraIssueFields{
			Project:     jiraProject{Key: c.config.ProjectKey},
			Summary:     summary,
			Description: description,
			IssueType:   jiraIssueType{Name: c.config.IssueType},
		},
	}

	payload, err := json.Marshal(issue)
	if err != nil {
		return "", errors.NewInternalError("failed to marshal jira issue").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/rest/api/2/issue", bytes.NewReader(payload))
	if err != nil {
		return "", errors.NewInternalError("failed to build jira request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.config.Email, c.config.APIToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.NewExternalError("JIRA_UNREACHABLE", "jira request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.NewEscalationError("jira",
			fmt.Sprintf("jira returned status %d: %s", resp.StatusCode, string(body)))
	}

	var created jiraIssueResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", errors.NewEscalationError("jira", "failed to decode jira response").WithCause(err)
	}

	c.logger.Info("jira issue created", zap.String("key", created.Key))
	return created.Key, nil
}
