package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agribasket/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// TokenSource returns the current access token, or "" when anonymous.
// Cart mirror calls carry the Authorization header only when one exists.
type TokenSource func() string

// Client talks to the remote storefront backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

func NewClient(baseURL string, token TokenSource) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		token: token,
	}
}

// Token exchanges credentials for an access token via POST /auth/token/.
func (c *Client) Token(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/token/", tokenRequest{Email: email, Password: password}, &resp)
	if err != nil {
		if isAuthStatus(err) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if resp.Token == "" {
		return "", ErrInvalidCredentials
	}
	return resp.Token, nil
}

// Me fetches the current profile via GET /auth/me/.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/me/", nil, &u); err != nil {
		if isAuthStatus(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &u, nil
}

func (c *Client) AddItem(ctx context.Context, productID int64, variantID *int64, quantity int) error {
	return c.do(ctx, http.MethodPost, "/carts/add_item/", LineItem{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}, nil)
}

func (c *Client) SetQuantity(ctx context.Context, productID int64, variantID *int64, quantity int) error {
	return c.do(ctx, http.MethodPost, "/carts/set_quantity/", LineItem{
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}, nil)
}

func (c *Client) RemoveItem(ctx context.Context, productID int64, variantID *int64) error {
	return c.do(ctx, http.MethodPost, "/carts/remove_item/", struct {
		ProductID int64  `json:"product_id"`
		VariantID *int64 `json:"variant_id,omitempty"`
	}{ProductID: productID, VariantID: variantID}, nil)
}

// SyncLines replaces or merges the server-side cart mirror.
func (c *Client) SyncLines(ctx context.Context, lines []LineItem, mode string) error {
	if lines == nil {
		lines = []LineItem{}
	}
	return c.do(ctx, http.MethodPost, "/carts/sync/", syncRequest{Lines: lines, Mode: mode}, nil)
}

// Lines fetches the server-side cart mirror. The backend answers with a bare
// array, {"results": [...]} or {"items": [...]} depending on its version;
// DecodeList normalizes all three.
func (c *Client) Lines(ctx context.Context) ([]LineItem, error) {
	raw, err := c.raw(ctx, http.MethodGet, "/carts/", nil)
	if err != nil {
		return nil, err
	}

	elems, err := DecodeList(raw)
	if err != nil {
		return nil, err
	}

	lines := make([]LineItem, 0, len(elems))
	for _, e := range elems {
		var item LineItem
		if err := json.Unmarshal(e, &item); err != nil {
			return nil, fmt.Errorf("failed to decode cart line: %w", err)
		}
		lines = append(lines, item)
	}
	return lines, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.raw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, body any) ([]byte, error) {
	log := logger.FromCtx(ctx).With(zap.String("path", path))

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			log.Error("failed to marshal request body", zap.Error(err))
			return nil, err
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug("backend rejected request",
			zap.Int("status", resp.StatusCode),
		)
		return nil, &statusError{Status: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

func requestID(ctx context.Context) string {
	if id := logger.RequestIDFrom(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %d", ErrBadStatus, e.Status)
}

func (e *statusError) Unwrap() error { return ErrBadStatus }

func isAuthStatus(err error) bool {
	se, ok := err.(*statusError)
	return ok && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden || se.Status == http.StatusBadRequest)
}
