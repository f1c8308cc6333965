package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBrevoBaseURL = "https://api.brevo.com/v3"

// BrevoClient is a minimal client for the Brevo campaigns API.
type BrevoClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewBrevoClient(apiKey string, opts ...BrevoOption) *BrevoClient {
	c := &BrevoClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBrevoBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type BrevoOption func(*BrevoClient)

func WithBrevoBaseURL(u string) BrevoOption {
	return func(c *BrevoClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithBrevoHTTPClient(h *http.Client) BrevoOption {
	return func(c *BrevoClient) { c.httpClient = h }
}

// BrevoError is a non-2xx response from the Brevo API.
type BrevoError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *BrevoError) Error() string {
	return fmt.Sprintf("brevo api error (status=%d, code=%s): %s", e.StatusCode, e.Code, e.Message)
}

type Sender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateCampaignRequest struct {
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	Sender      Sender `json:"sender"`
	Type        string `json:"type"`
	HTMLContent string `json:"htmlContent"`
	Recipients  struct {
		ListIDs []int64 `json:"listIds"`
	} `json:"recipients"`
	ScheduledAt string `json:"scheduledAt,omitempty"`
}

type BrevoCampaign struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
}

func (c *BrevoClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &BrevoError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// CreateCampaign creates a classic email campaign and returns the Brevo id.
func (c *BrevoClient) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (int64, error) {
	if req.Type == "" {
		req.Type = "classic"
	}
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/emailCampaigns", req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// ListCampaigns returns campaigns newest first.
func (c *BrevoClient) ListCampaigns(ctx context.Context, limit int) ([]BrevoCampaign, error) {
	var resp struct {
		Campaigns []BrevoCampaign `json:"campaigns"`
	}
	path := fmt.Sprintf("/emailCampaigns?limit=%d&sort=desc", limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Campaigns, nil
}

// SendNow triggers immediate delivery of a drafted campaign.
func (c *BrevoClient) SendNow(ctx context.Context, campaignID int64) error {
	path := fmt.Sprintf("/emailCampaigns/%d/sendNow", campaignID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}
