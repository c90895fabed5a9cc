// PopHits REST API client
package services

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

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pophits/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL         = "https://pophits.org"
	defaultGeneratorPrefix = "/api/songs"
)

// TokenSource supplies the PopHits auth token for each request. An empty token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed [TokenSource].
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// Option configures a [PopHitsService].
type Option func(*PopHitsService)

// WithTokenSource sets where the auth token comes from, usually a session.
func WithTokenSource(ts TokenSource) Option {
	return func(s *PopHitsService) { s.tokens = ts }
}

// WithRateLimit caps outgoing requests per second. Zero or negative disables limiting.
func WithRateLimit(rps float64) Option {
	return func(s *PopHitsService) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithGeneratorPrefix sets the path under which generate-playlist and generate-quiz live.
func WithGeneratorPrefix(prefix string) Option {
	return func(s *PopHitsService) {
		if prefix != "" {
			s.generatorPrefix = "/" + strings.Trim(prefix, "/")
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(s *PopHitsService) { s.logger = l }
}

// PopHitsService is a typed client for the PopHits REST API. One method per endpoint.
type PopHitsService struct {
	baseURL         string
	generatorPrefix string
	httpClient      *http.Client
	tokens          TokenSource
	limiter         *rate.Limiter
	logger          *log.Logger
}

// NewPopHitsService creates a client for the API at baseURL.
func NewPopHitsService(baseURL string, client *http.Client, opts ...Option) *PopHitsService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	s := &PopHitsService{
		baseURL:         strings.TrimRight(baseURL, "/"),
		generatorPrefix: defaultGeneratorPrefix,
		httpClient:      client,
		tokens:          StaticToken(""),
		logger:          shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPopHitsServiceFromConfig builds a client from the [api] config section.
func NewPopHitsServiceFromConfig(cfg shared.APIConfig, ts TokenSource, logger *log.Logger) *PopHitsService {
	client := &http.Client{Timeout: cfg.Timeout}
	opts := []Option{WithGeneratorPrefix(cfg.GeneratorPrefix), WithRateLimit(cfg.RateLimit)}
	if ts != nil {
		opts = append(opts, WithTokenSource(ts))
	}
	if logger != nil {
		opts = append(opts, WithLogger(shared.WithLogger(logger, "service", "pophits")))
	}
	return NewPopHitsService(cfg.BaseURL, client, opts...)
}

// BaseURL returns the API host the client talks to.
func (s *PopHitsService) BaseURL() string { return s.baseURL }

// APIError is a non-2xx response from the API.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Endpoint, e.StatusCode, msg)
}

// Unwrap classifies the error so callers can match on shared sentinels with [errors.Is].
func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	switch {
	case e.StatusCode == http.StatusNotFound:
		errs = append(errs, shared.ErrNotFound)
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		errs = append(errs, shared.ErrNotAuthenticated)
	case e.StatusCode == http.StatusBadRequest:
		errs = append(errs, shared.ErrInvalidInput)
	case e.StatusCode >= 500:
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	return errs
}

// StatusCode extracts the HTTP status from an [APIError] anywhere in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// APIResponse is an undecoded response, used for raw debugging requests.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Raw sends an arbitrary request and returns the response without status checks or typed decoding.
func (s *PopHitsService) Raw(ctx context.Context, method, path string, body []byte) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := s.newRequest(ctx, method, path, nil, reader)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}
	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}
	return apiResp, nil
}

func (s *PopHitsService) get(ctx context.Context, path string, query url.Values, out any) error {
	return s.do(ctx, http.MethodGet, path, query, nil, out)
}

func (s *PopHitsService) post(ctx context.Context, path string, body, out any) error {
	return s.do(ctx, http.MethodPost, path, nil, body, out)
}

// do sends a JSON request and decodes a 2xx body into out. Empty and 204 bodies leave out untouched.
func (s *PopHitsService) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := s.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}

	resp, err := s.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Method:     method,
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrDecode, method, path, err)
	}
	return nil
}

func (s *PopHitsService) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	fullURL := s.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := s.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	return req, nil
}

func (s *PopHitsService) send(req *http.Request) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}

	s.logger.Debug("api request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "took", time.Since(start))
	return resp, nil
}

// errorMessage pulls the human readable message out of a DRF error body.
func errorMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if v, ok := payload[key].(string); ok && v != "" {
				return v
			}
		}
		for key, v := range payload {
			if msgs, ok := v.([]any); ok && len(msgs) > 0 {
				return fmt.Sprintf("%s: %v", key, msgs[0])
			}
		}
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "<") {
		return ""
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
