package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FarahDimassi/coachchat-go/chat"
)

// Client consumes the REST surface of the chat backend: message history and
// attachment upload. Both require the bearer credential supplied by the
// external auth collaborator.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var (
	_ chat.HistoryFetcher = (*Client)(nil)
	_ chat.Uploader       = (*Client)(nil)
)

// NewClient creates a new REST API client.
// baseURL should be the base URL of the API, e.g., "http://localhost:8080/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetToken sets the bearer token for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// History retrieves the ordered past-message log for the conversation
// between counterpartID and selfID. The origin store's non-decreasing
// timestamp order is preserved as-is. Transport failures and non-success
// statuses are recoverable: the caller opens an empty conversation.
func (c *Client) History(ctx context.Context, counterpartID, selfID int64) ([]chat.Message, error) {
	path := fmt.Sprintf("/messages/%d/%d", counterpartID, selfID)

	var msgs []chat.Message
	if err := c.get(ctx, path, &msgs); err != nil {
		return nil, chat.WrapError(chat.ErrorHistoryUnavailable, "fetch history", err)
	}
	return msgs, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)
	return c.do(req, dest)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("http error: %s (status %d)", string(body), resp.StatusCode)
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
