// Package apiclient talks to the backend API on behalf of the checkout desk.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"pahana-billing/internal/domain"
	"pahana-billing/internal/logging"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status=%d", e.Status)
	}
	return fmt.Sprintf("api error: status=%d: %s", e.Status, e.Message)
}

// RejectionMessage is the message the server gave, if any.
func (e *APIError) RejectionMessage() string {
	return e.Message
}

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// New returns a Client for the API rooted at baseURL (for example
// http://localhost:8080/api). token is sent as a bearer credential when set.
func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logging.OrNop(logger).Named("apiclient"),
	}
}

// ResolveCustomer looks a customer up by account number. An unknown account
// yields domain.ErrNotFound.
func (c *Client) ResolveCustomer(ctx context.Context, accountNumber string) (*domain.Customer, error) {
	var out domain.Customer
	path := "/customer/" + url.PathEscape(accountNumber)
	err := c.do(ctx, http.MethodGet, path, url.Values{"accno": {"true"}}, nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListItems(ctx context.Context) ([]domain.Item, error) {
	var out []domain.Item
	if err := c.do(ctx, http.MethodGet, "/item/", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSale submits req and returns the persisted bill.
func (c *Client) CreateSale(ctx context.Context, req domain.SaleRequest) (*domain.Bill, error) {
	var out domain.Bill
	if err := c.do(ctx, http.MethodPost, "/sales-history/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSale fetches a persisted bill.
func (c *Client) GetSale(ctx context.Context, id int64) (*domain.Bill, error) {
	var out domain.Bill
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sales-history/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	return decodeJSON(resp, out)
}

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &body)
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
