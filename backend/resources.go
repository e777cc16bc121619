package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Resource is a role-scoped REST collection on the backend
type Resource string

const (
	ResourceCustomers Resource = "clientes"
	ResourceSellers   Resource = "vendedores"
	ResourceParts     Resource = "pecas"
	ResourceOrders    Resource = "pedidos"
)

func ParseResource(s string) (Resource, bool) {
	switch r := Resource(strings.Trim(s, "/")); r {
	case ResourceCustomers, ResourceSellers, ResourceParts, ResourceOrders:
		return r, true
	default:
		return "", false
	}
}

// ResourceClient issues bearer-authorised requests against resource endpoints
type ResourceClient struct {
	baseURL    string
	httpClient *http.Client
}

// Resources returns a client that attaches bearerToken to every request
func (c *Client) Resources(ctx context.Context, bearerToken string) *ResourceClient {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: bearerToken,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.httpClient.Timeout

	return &ResourceClient{
		baseURL:    c.baseURL,
		httpClient: hc,
	}
}

// URL builds the absolute URL of a resource path, escaping each segment
func (rc *ResourceClient) URL(resource Resource, segments ...string) string {
	var b strings.Builder
	b.WriteString(rc.baseURL)
	b.WriteString("/")
	b.WriteString(string(resource))
	for _, s := range segments {
		if s = strings.Trim(s, "/"); s == "" {
			continue
		}
		for _, part := range strings.Split(s, "/") {
			b.WriteString("/")
			b.WriteString(url.PathEscape(part))
		}
	}
	return b.String()
}

// List fetches a collection, optionally a nested one (e.g. pedidos/{id}/itens)
func (rc *ResourceClient) List(ctx context.Context, resource Resource, out any, segments ...string) error {
	return rc.call(ctx, http.MethodGet, rc.URL(resource, segments...), nil, out)
}

func (rc *ResourceClient) Get(ctx context.Context, resource Resource, id string, out any) error {
	return rc.call(ctx, http.MethodGet, rc.URL(resource, id), nil, out)
}

func (rc *ResourceClient) Create(ctx context.Context, resource Resource, in, out any) error {
	return rc.call(ctx, http.MethodPost, rc.URL(resource), in, out)
}

func (rc *ResourceClient) Update(ctx context.Context, resource Resource, id string, in, out any) error {
	return rc.call(ctx, http.MethodPut, rc.URL(resource, id), in, out)
}

func (rc *ResourceClient) Delete(ctx context.Context, resource Resource, id string) error {
	return rc.call(ctx, http.MethodDelete, rc.URL(resource, id), nil, nil)
}

// Forward relays a raw request body to a resource path and returns the backend response
// untouched. The caller owns the response body.
func (rc *ResourceClient) Forward(ctx context.Context, method string, resource Resource, rest, rawQuery string, body io.Reader, contentType string) (*http.Response, error) {
	target := rc.URL(resource, rest)
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("[ResourceClient Forward] build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return nil, networkError(err)
	}
	return resp, nil
}

func (rc *ResourceClient) call(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("[ResourceClient %s] encode request: %w", method, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("[ResourceClient %s] build request: %w", method, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	req.Header.Set("Accept", contentTypeJSON)

	_, err = doJSON(rc.httpClient, req, out, resourceMessages)
	return err
}
