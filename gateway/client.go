package gateway

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Backend endpoints, relative to the configured base URL.
const (
	topicsEndpoint         = "article/topics"
	generateEndpoint       = "article/generate"
	regenEngagingEndpoint  = "regenerate/engaging_text"
	regenPerexEndpoint     = "regenerate/perex"
	regenBodyEndpoint      = "regenerate/articlebody"
	regenHeadlinesEndpoint = "regenerate/headlines"
	grammarEndpoint        = "check-grammar"
)

const (
	requestIDHeader        = "X-Request-ID"
	maxErrorBodySnippet    = 256
	defaultRequestTimeout  = 120 * time.Second
	defaultGrammarLanguage = "sk"
)

// Client issues requests against the article generation backend. It performs
// no validation of caller parameters and never retries.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// New creates a Client for baseURL. A nil http client gets a default one with a
// generous timeout since generation calls are slow; a nil logger falls back to
// logrus' standard logger.
func New(baseURL string, client *http.Client, logger *logrus.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/") + "/",
		client:  client,
		logger:  logger,
	}, nil
}

// BaseURL returns the normalized base URL, always ending in a slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// post sends payload as JSON and returns the decoded body. Any transport,
// status or decoding failure is reported as a *TransportError.
func (c *Client) post(ctx context.Context, op, endpoint string, payload any) (gjson.Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, &TransportError{Op: op, Endpoint: endpoint, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, &TransportError{Op: op, Endpoint: endpoint, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	log := c.logger.WithFields(logrus.Fields{
		"op":         op,
		"endpoint":   endpoint,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("backend request failed")
		return gjson.Result{}, &TransportError{Op: op, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	log = log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		log.WithError(err).Warn("reading backend response failed")
		return gjson.Result{}, &TransportError{Op: op, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, snippet(data))
		log.Warn("backend returned error status")
		return gjson.Result{}, &TransportError{Op: op, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if !gjson.ValidBytes(data) {
		log.Warn("backend returned malformed json")
		return gjson.Result{}, &TransportError{Op: op, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrMalformedBody}
	}

	log.Info("backend request completed")
	return gjson.ParseBytes(data), nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorBodySnippet {
		return s[:maxErrorBodySnippet]
	}
	return s
}

// stringsAt reads path as a sequence of strings. Absent paths yield nil.
func stringsAt(r gjson.Result, path string) []string {
	v := r.Get(path)
	if !v.Exists() || !v.IsArray() {
		return nil
	}
	items := v.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}

func floatsAt(r gjson.Result, path string) []float64 {
	v := r.Get(path)
	if !v.Exists() || !v.IsArray() {
		return nil
	}
	items := v.Array()
	out := make([]float64, 0, len(items))
	for _, item := range items {
		out = append(out, item.Float())
	}
	return out
}

// IsTransportError reports whether err came out of the gateway.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
