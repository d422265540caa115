package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"infohub/internal/domain"
	"infohub/internal/httputil"
)

const (
	defaultTimeout = 15 * time.Second
	readRetries    = 2
)

// APIError is a response the backend answered on purpose: a non-2xx status or a
// {status:false} envelope. It unwraps to the matching domain sentinel when there is one.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client talks to the InfoHub REST backend. Every response is a {status, message, data} envelope.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

func New(baseURL string, client *http.Client, logger *log.Logger) *Client {
	if client == nil {
		client = httputil.NewHTTPClient(nil, defaultTimeout)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: client, logger: logger}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one request and returns the envelope data. Reads are retried on transport errors and 5xx.
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body interface{}) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	retries := 0
	if method == http.MethodGet {
		retries = readRetries
	}
	resp, err := httputil.DoWithRetry(c.http, req, retries)
	if err != nil {
		c.logger.Printf("backend: %s %s error=%v", method, path, err)
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil {
			msg = strings.TrimSpace(string(raw))
		}
		c.logger.Printf("backend: %s %s status=%d message=%q", method, path, resp.StatusCode, msg)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, kind: kindFor(resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode %s %s: %v", domain.ErrBackendUnavailable, method, path, decodeErr)
	}
	if !env.Status {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}

func kindFor(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrNotAuthenticated
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.ErrInvalidFormat
	case status == http.StatusConflict:
		return domain.ErrAlreadyExists
	case status >= 500:
		return domain.ErrBackendUnavailable
	default:
		return nil
	}
}
