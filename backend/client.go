package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/atelier-portal/internal/errors"
)

const (
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"

	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20
)

// Client talks to the atelier REST backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client (primarily for testing)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a backend client rooted at baseURL. A zero timeout means no timeout.
func New(baseURL string, timeout time.Duration, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login posts credentials to /auth/login
func (c *Client) Login(ctx context.Context, credentials Credentials) (AuthResponse, error) {
	var resp AuthResponse
	if _, err := c.postJSON(ctx, RouteAuthLogin, credentials, &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Register validates the form locally, then posts it to /auth/register.
// A 409 is attributed to the email field and a 403 to the admin secret field.
func (c *Client) Register(ctx context.Context, form RegistrationForm) (RegisterResponse, error) {
	if fieldErrs := form.Validate(); fieldErrs != nil {
		return RegisterResponse{}, &APIError{
			Kind:        apperrors.ErrValidation,
			Message:     "Verifique os campos destacados.",
			FieldErrors: fieldErrs,
		}
	}

	var resp RegisterResponse
	raw, err := c.postJSON(ctx, RouteAuthRegister, form.payload(), &resp.AuthResponse)
	if err != nil {
		var apiErr *APIError
		if apperrors.As(err, &apiErr) {
			switch {
			case apperrors.Is(apiErr, apperrors.ErrConflict):
				apiErr.FieldErrors = withField(apiErr.FieldErrors, FieldEmail, apiErr.Message)
			case apperrors.Is(apiErr, apperrors.ErrForbidden):
				apiErr.FieldErrors = withField(apiErr.FieldErrors, FieldAdminSecret, apiErr.Message)
			}
		}
		return RegisterResponse{}, err
	}

	resp.Raw = map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &resp.Raw); err != nil {
			return RegisterResponse{}, fmt.Errorf("[backend Register] decode response: %w: %v", apperrors.ErrServer, err)
		}
	}
	return resp, nil
}

func withField(fields map[string]string, key, msg string) map[string]string {
	if fields == nil {
		fields = map[string]string{}
	}
	if _, ok := fields[key]; !ok {
		fields[key] = msg
	}
	return fields
}

// postJSON sends body as JSON and decodes a 2xx response into out. The raw body is returned.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("[backend %s] encode request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("[backend %s] build request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	return doJSON(c.httpClient, req, out, authMessages)
}

// doJSON executes req, classifying transport and HTTP failures
func doJSON(hc *http.Client, req *http.Request, out any, msgs messageSet) ([]byte, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, classify(resp.StatusCode, raw, msgs)
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, &APIError{
				Kind:    apperrors.ErrServer,
				Status:  resp.StatusCode,
				Message: "O servidor enviou uma resposta ilegível.",
				Err:     err,
			}
		}
	}
	return raw, nil
}
