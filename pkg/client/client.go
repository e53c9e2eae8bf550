// Package client is a Go client for the code compiler HTTP API.
//
//	c := client.New("http://localhost:8080",
//		client.WithClientCredentials("grader", os.Getenv("CLIENT_SECRET")))
//	res, err := c.Execute(ctx, client.Request{Language: "python", Code: "print(1)"})
//
// With client credentials, tokens are fetched from /oauth/token and
// refreshed by golang.org/x/oauth2 as they expire.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultTimeout = 2 * time.Minute

// Request is one execution request.
type Request struct {
	Language   string   `json:"language"`
	Code       string   `json:"code"`
	Input      []string `json:"input,omitempty"`
	EntryPoint string   `json:"entryPoint,omitempty"`
}

// Result mirrors the /api/execute response. Kind is empty on success and
// otherwise one of compile_error, runtime_error, spawn_error,
// workspace_error or unknown_error.
type Result struct {
	Output     string `json:"output"`
	Kind       string `json:"kind,omitempty"`
	Language   string `json:"language"`
	DurationMs int64  `json:"durationMs"`
	OK         bool   `json:"ok"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("client: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("client: %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client

	clientID     string
	clientSecret string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. With client
// credentials it is also used to reach the token endpoint.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClientCredentials authenticates with the OAuth2 client-credentials grant.
func WithClientCredentials(clientID, clientSecret string) Option {
	return func(c *Client) {
		c.clientID = clientID
		c.clientSecret = clientSecret
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.clientID != "" {
		cc := clientcredentials.Config{
			ClientID:     c.clientID,
			ClientSecret: c.clientSecret,
			TokenURL:     c.baseURL + "/oauth/token",
		}
		// oauth2 picks up the base client from the context for token calls
		// and wraps it for API calls.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		authed := cc.Client(ctx)
		authed.Timeout = c.http.Timeout
		c.http = authed
	}
	return c
}

// Execute runs code through /api/execute. A failing program is not an
// error: check Result.OK.
func (c *Client) Execute(ctx context.Context, req Request) (*Result, error) {
	var res Result
	if err := c.doJSON(ctx, http.MethodPost, "/api/execute", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Compile runs code through /compiler/execute and returns the plain
// result string.
func (c *Client) Compile(ctx context.Context, req Request) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/compiler/execute", req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Languages lists the languages the server accepts.
func (c *Client) Languages(ctx context.Context) ([]string, error) {
	var res struct {
		Languages []string `json:"languages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/languages", nil, &res); err != nil {
		return nil, err
	}
	return res.Languages, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("client: decoding %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("client: encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("client: building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp, body)
	}
	return body, nil
}

// newAPIError understands both the JSON error body and the plain-text one
// sent by /compiler/execute.
func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			apiErr.Code = e.Error
			apiErr.Message = e.Message
		}
	}
	return apiErr
}
