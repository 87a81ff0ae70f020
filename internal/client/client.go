// Package client provides an HTTP client for the rentwise REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/rentwise/internal/auth"
	"github.com/evcraddock/rentwise/internal/conversation"
	"github.com/evcraddock/rentwise/internal/dashboard"
	"github.com/evcraddock/rentwise/internal/property"
	"github.com/evcraddock/rentwise/internal/visit"
)

// Client is an HTTP client for the rentwise API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// MeResponse is the response from GET /api/me.
type MeResponse struct {
	User                *auth.User `json:"user"`
	PollIntervalSeconds int        `json:"poll_interval_seconds"`
}

// StartResponse is the response from POST /api/properties/{id}/messages.
type StartResponse struct {
	Conversation *conversation.Conversation `json:"conversation"`
	Message      *conversation.Message      `json:"message"`
}

// ThreadResponse is the response from GET /api/conversations/{id}/messages.
type ThreadResponse struct {
	Conversation *conversation.Conversation `json:"conversation"`
	Messages     []*conversation.Message    `json:"messages"`
}

// KeyResponse is the response from POST /api/keys.
type KeyResponse struct {
	Key    string       `json:"key"`
	APIKey *auth.APIKey `json:"api_key"`
}

// ConversationOptions controls filtering for ListConversations.
type ConversationOptions struct {
	PropertyID int64
	UnreadOnly bool
	Query      string
}

// VisitOptions controls filtering for ListVisits. Dates use RFC 3339 or YYYY-MM-DD.
type VisitOptions struct {
	Status     string
	PropertyID int64
	From, To   string
}

// Me returns the authenticated user.
func (c *Client) Me() (*MeResponse, error) {
	var resp MeResponse
	if err := c.get("/api/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Dashboard returns the caller's badge counts.
func (c *Client) Dashboard() (*dashboard.Summary, error) {
	var sum dashboard.Summary
	if err := c.get("/api/dashboard", &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// ListProperties returns the calling owner's properties.
func (c *Client) ListProperties() ([]*property.Property, error) {
	var props []*property.Property
	if err := c.get("/api/properties", &props); err != nil {
		return nil, err
	}
	return props, nil
}

// GetProperty returns a single property.
func (c *Client) GetProperty(id int64) (*property.Property, error) {
	var p property.Property
	if err := c.get(fmt.Sprintf("/api/properties/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddProperty lists a new property owned by the caller.
func (c *Client) AddProperty(title, address string, price *int64) (*property.Property, error) {
	body := map[string]interface{}{"title": title, "address": address}
	if price != nil {
		body["price"] = *price
	}
	var p property.Property
	if err := c.post("/api/properties", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MessageProperty sends a tenant's message to a property's owner.
func (c *Client) MessageProperty(propertyID int64, body string) (*StartResponse, error) {
	var resp StartResponse
	if err := c.post(fmt.Sprintf("/api/properties/%d/messages", propertyID), map[string]string{"body": body}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListConversations returns the caller's conversation summaries.
func (c *Client) ListConversations(opts ConversationOptions) ([]conversation.Summary, error) {
	params := url.Values{}
	if opts.PropertyID > 0 {
		params.Set("property_id", fmt.Sprint(opts.PropertyID))
	}
	if opts.UnreadOnly {
		params.Set("unread", "true")
	}
	if opts.Query != "" {
		params.Set("q", opts.Query)
	}

	var sums []conversation.Summary
	if err := c.get(withQuery("/api/conversations", params), &sums); err != nil {
		return nil, err
	}
	return sums, nil
}

// Thread returns a conversation's messages and marks incoming ones read.
func (c *Client) Thread(conversationID int64) (*ThreadResponse, error) {
	var resp ThreadResponse
	if err := c.get(fmt.Sprintf("/api/conversations/%d/messages", conversationID), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reply sends a message in an existing conversation.
func (c *Client) Reply(conversationID int64, body string) (*conversation.Message, error) {
	var msg conversation.Message
	if err := c.post(fmt.Sprintf("/api/conversations/%d/messages", conversationID), map[string]string{"body": body}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RequestVisit asks to visit a property at visitDate.
func (c *Client) RequestVisit(propertyID int64, visitDate string) (*visit.Request, error) {
	var v visit.Request
	if err := c.post(fmt.Sprintf("/api/properties/%d/visits", propertyID), map[string]string{"visit_date": visitDate}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVisit returns one visit request.
func (c *Client) GetVisit(id int64) (*visit.Request, error) {
	var v visit.Request
	if err := c.get(fmt.Sprintf("/api/visits/%d", id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVisits returns the caller's visit requests and per-status counts.
func (c *Client) ListVisits(opts VisitOptions) (*visit.ListResult, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.PropertyID > 0 {
		params.Set("property_id", fmt.Sprint(opts.PropertyID))
	}
	if opts.From != "" {
		params.Set("from", opts.From)
	}
	if opts.To != "" {
		params.Set("to", opts.To)
	}

	var res visit.ListResult
	if err := c.get(withQuery("/api/visits", params), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ApplyVisit performs a lifecycle action on a visit request. Delete returns nil.
func (c *Client) ApplyVisit(id int64, action visit.Action) (*visit.Request, error) {
	if action == visit.ActionDelete {
		return nil, c.doDelete(fmt.Sprintf("/api/visits/%d", id))
	}
	var v visit.Request
	if err := c.post(fmt.Sprintf("/api/visits/%d/%s", id, action), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListKeys returns the caller's API keys.
func (c *Client) ListKeys() ([]auth.APIKey, error) {
	var keys []auth.APIKey
	if err := c.get("/api/keys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateKey issues a new API key for the caller.
func (c *Client) CreateKey(name string) (*KeyResponse, error) {
	var resp KeyResponse
	if err := c.post("/api/keys", map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteKey revokes one of the caller's API keys.
func (c *Client) DeleteKey(id int64) error {
	return c.doDelete(fmt.Sprintf("/api/keys/%d", id))
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
// A nil body sends no payload.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(path string) error {
	req, err := http.NewRequest("DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) (err error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing response body: %w", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("server error: %s", http.StatusText(resp.StatusCode))
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
