package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nachoal/sse-chat-go/history"
)

const (
	DefaultBaseURL = "http://localhost:3417"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4096
)

// Client talks to the conversational backend
type Client struct {
	options      Options
	httpClient   *http.Client
	streamClient *http.Client
	logger       *slog.Logger
}

// NewClient creates a new backend client
func NewClient(opts ...Option) (*Client, error) {
	options := Options{
		BaseURL: DefaultBaseURL,
		Timeout: defaultTimeout,
		Headers: make(map[string]string),
	}

	// Apply options
	for _, opt := range opts {
		opt(&options)
	}

	base, err := url.Parse(options.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", options.BaseURL)
	}
	options.BaseURL = strings.TrimRight(options.BaseURL, "/")

	base0 := options.HTTPClient
	if base0 == nil {
		base0 = &http.Client{}
	}
	httpClient := *base0
	httpClient.Timeout = options.Timeout
	streamClient := *base0
	streamClient.Timeout = 0

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		options:      options,
		httpClient:   &httpClient,
		streamClient: &streamClient,
		logger:       logger.With(slog.String("module", "backend")),
	}, nil
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.options.BaseURL
}

// Chats returns the newest page of conversations, newest first
func (c *Client) Chats(ctx context.Context) ([]history.Entry, error) {
	var entries []history.Entry
	if err := c.getJSON(ctx, "list chats", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ChatsBelow returns the page of conversations older than id, newest first
func (c *Client) ChatsBelow(ctx context.Context, id int64) ([]history.Entry, error) {
	var entries []history.Entry
	if err := c.getJSON(ctx, "list chats below", url.Values{"below": {formatID(id)}}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ChatsAbove returns the page of conversations newer than id, oldest first
func (c *Client) ChatsAbove(ctx context.Context, id int64) ([]history.Entry, error) {
	var entries []history.Entry
	if err := c.getJSON(ctx, "list chats above", url.Values{"above": {formatID(id)}}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Messages returns the stored messages of a conversation
func (c *Client) Messages(ctx context.Context, id int64) ([]StoredMessage, error) {
	var messages []StoredMessage
	if err := c.getJSON(ctx, "load chat", url.Values{"id": {formatID(id)}}, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Save asks the backend to persist the conversation
func (c *Client) Save(ctx context.Context, id int64) error {
	return c.get(ctx, "save chat", "/save", url.Values{"id": {formatID(id)}})
}

// Alive tells the backend the conversation is still open
func (c *Client) Alive(ctx context.Context, id int64) error {
	return c.get(ctx, "keep alive", "/alive", url.Values{"id": {formatID(id)}})
}

// ArchiveAll asks the backend to persist every open conversation
func (c *Client) ArchiveAll(ctx context.Context) error {
	return c.get(ctx, "archive all", "/archive-all", nil)
}

// Configure changes the models used by the backend
func (c *Client) Configure(ctx context.Context, cfg ModelConfig) error {
	resp, err := c.postJSON(ctx, c.httpClient, "configure", "/configure", cfg)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Generate starts a generation and returns the event stream body. The caller
// must close it. The stream ends when the backend finishes or ctx is done.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (io.ReadCloser, error) {
	resp, err := c.postJSON(ctx, c.streamClient, "generate", "/generate", req, "Accept", "text/event-stream")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, op string, query url.Values, out any) error {
	resp, err := c.do(ctx, c.httpClient, op, http.MethodGet, "/get", query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", op, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values) error {
	resp, err := c.do(ctx, c.httpClient, op, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) postJSON(ctx context.Context, hc *http.Client, op, path string, body any, headers ...string) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}
	headers = append(headers, "Content-Type", "application/json")
	return c.do(ctx, hc, op, http.MethodPost, path, nil, bytes.NewReader(data), headers...)
}

// do executes a request and returns the response for any 2xx status.
func (c *Client) do(ctx context.Context, hc *http.Client, op, method, path string, query url.Values, body io.Reader, headers ...string) (*http.Response, error) {
	u := c.options.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	c.setHeaders(req)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to execute request: %w", op, err)
	}
	c.logger.Debug("request",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("url", u),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(b)}
	}
	return resp, nil
}

// setHeaders sets common headers for requests
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "sse-chat-go/1.0")

	// Add custom headers
	for k, v := range c.options.Headers {
		req.Header.Set(k, v)
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
