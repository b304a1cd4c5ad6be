package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"social-autopost/internal/domain/ports/adapter"
)

var _ adapter.Publisher = (*Client)(nil)

// APIError is a structured publish failure. Code carries the backend's
// numeric error class (HTTP status when the body has no finer code), Detail
// the diagnostic payload.
type APIError struct {
	StatusCode int
	Code       int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter: status=%d code=%d detail=%s", e.StatusCode, e.Code, e.Detail)
}

// IsPermission reports an authorization-class failure. Logged with actionable
// detail; retry eligibility is unchanged (a retry will not help, but none is
// suppressed).
func (e *APIError) IsPermission() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Client publishes to the v2 Tweets API using an OAuth2 user token.
type Client struct {
	token  string
	base   string // e.g., https://api.twitter.com
	client *http.Client
}

func NewClient(accessToken, baseURL string) (*Client, error) {
	if accessToken == "" {
		return nil, errors.New("twitter: empty access token")
	}
	if baseURL == "" {
		baseURL = "https://api.twitter.com"
	}
	return &Client{
		token:  accessToken,
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) Publish(ctx context.Context, text string) (*adapter.PublishResult, error) {
	reqBody := struct {
		Text string `json:"text"`
	}{Text: text}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/2/tweets", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	var payload struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("twitter: decode response: %w", err)
	}
	if payload.Data.ID == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: "response carried no tweet id"}
	}
	return &adapter.PublishResult{ID: payload.Data.ID, Text: payload.Data.Text}, nil
}

func (c *Client) Delete(ctx context.Context, externalID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/2/tweets/"+externalID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: resp.StatusCode}

	// v2 problem document: {"title","detail","status"}; legacy shape:
	// {"errors":[{"code","message"}]}.
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Status int    `json:"status"`
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &problem); err == nil {
		if problem.Status != 0 {
			apiErr.Code = problem.Status
		}
		switch {
		case problem.Detail != "":
			apiErr.Detail = problem.Detail
		case len(problem.Errors) > 0:
			apiErr.Code = problem.Errors[0].Code
			apiErr.Detail = problem.Errors[0].Message
		case problem.Title != "":
			apiErr.Detail = problem.Title
		}
	}
	if apiErr.Detail == "" {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	return apiErr
}
