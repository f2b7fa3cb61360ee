package profileapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/student-portal/internal/config"
	"github.com/campusdesk/student-portal/internal/domain"
)

type tokenCtxKey struct{}

// WithToken attaches the caller's bearer token to ctx so it is forwarded upstream.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenCtxKey{}).(string)
	return token
}

// Client talks to the remote student profile service.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fiber.Client
}

// NewClient builds a client for the configured profile service.
func NewClient(cfg config.ProfileAPIConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout(),
		http: &fiber.Client{
			JSONEncoder: sonic.Marshal,
			JSONDecoder: sonic.Unmarshal,
		},
	}
}

// Fetch returns the stored profile of userID as a raw record.
func (c *Client) Fetch(ctx context.Context, userID string) (map[string]any, error) {
	return c.do(ctx, fiber.MethodGet, userID, nil)
}

// Create stores a new profile for userID.
func (c *Client) Create(ctx context.Context, userID string, payload domain.Submission) (map[string]any, error) {
	return c.do(ctx, fiber.MethodPost, userID, payload)
}

// Update replaces the stored profile of userID.
func (c *Client) Update(ctx context.Context, userID string, payload domain.Submission) (map[string]any, error) {
	return c.do(ctx, fiber.MethodPut, userID, payload)
}

func (c *Client) profileURL(userID string) string {
	return fmt.Sprintf("%s/students/%s/profile", c.baseURL, url.PathEscape(userID))
}

func (c *Client) do(ctx context.Context, method, userID string, payload any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, networkError(err)
	}

	var agent *fiber.Agent
	target := c.profileURL(userID)
	switch method {
	case fiber.MethodPost:
		agent = c.http.Post(target)
	case fiber.MethodPut:
		agent = c.http.Put(target)
	default:
		agent = c.http.Get(target)
	}

	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token := tokenFrom(ctx); token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if payload != nil {
		agent.JSON(payload)
	}
	if timeout := c.requestTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, networkError(errors.Join(errs...))
	}

	if status < 200 || status >= 300 {
		message := errorMessage(body)
		return nil, &APIError{Kind: classify(status, message), Status: status, Message: message}
	}

	record, err := decodeRecord(body)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Status: status, Err: err}
	}
	return record, nil
}

// requestTimeout is the configured timeout, shortened to the context deadline.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func decodeRecord(body []byte) (map[string]any, error) {
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var envelope map[string]any
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if data, ok := envelope["data"].(map[string]any); ok {
		return data, nil
	}
	return envelope, nil
}

// errorMessage extracts `message` or `error.message` from an error body.
func errorMessage(body []byte) string {
	var envelope map[string]any
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}
	if msg, ok := envelope["message"].(string); ok {
		return msg
	}
	switch nested := envelope["error"].(type) {
	case string:
		return nested
	case map[string]any:
		if msg, ok := nested["message"].(string); ok {
			return msg
		}
	}
	return ""
}
