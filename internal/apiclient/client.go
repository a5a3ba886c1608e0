// Package apiclient talks to the MediLabo backends. Every call returns a
// Result: failures are carried as *model.APIError and never as Go errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/medilabo/webapp/internal/metrics"
	"github.com/medilabo/webapp/internal/model"
)

// Service names a backend.
type Service string

const (
	ServiceUser       Service = "user"
	ServiceNote       Service = "note"
	ServiceEvaluation Service = "evaluation"
)

// Services lists every backend.
var Services = []Service{ServiceUser, ServiceNote, ServiceEvaluation}

// Endpoints holds the base URL of each backend.
type Endpoints struct {
	UserService       string
	NoteService       string
	EvaluationService string
}

func (e Endpoints) base(s Service) string {
	switch s {
	case ServiceNote:
		return strings.TrimRight(e.NoteService, "/")
	case ServiceEvaluation:
		return strings.TrimRight(e.EvaluationService, "/")
	default:
		return strings.TrimRight(e.UserService, "/")
	}
}

// Result is the outcome of one backend call.
type Result[T any] struct {
	Value T
	Err   *model.APIError
}

// OK reports a 2xx response.
func (r Result[T]) OK() bool { return r.Err == nil }

var errServerStatus = errors.New("apiclient: server error status")

// Client is safe for concurrent use. WithToken derives a client that
// authenticates its requests.
type Client struct {
	endpoints Endpoints
	http      *http.Client
	log       *slog.Logger
	metrics   *metrics.Metrics
	breakers  map[Service]*gobreaker.CircuitBreaker
	now       func() time.Time
	token     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records every call on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker guards every backend with its own circuit breaker.
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *Client) {
		c.breakers = make(map[Service]*gobreaker.CircuitBreaker, len(Services))
		for _, s := range Services {
			c.breakers[s] = newBreaker(string(s), cfg, c)
		}
	}
}

// WithClock overrides the clock used for synthesized timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a client for the given backends.
func New(endpoints Endpoints, opts ...Option) *Client {
	c := &Client{
		endpoints: endpoints,
		http:      &http.Client{},
		log:       slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a client sending token as a bearer credential.
// An empty token sends no Authorization header.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type response struct {
	status int
	body   []byte
}

func call[T any](ctx context.Context, c *Client, svc Service, method, path string, body any) Result[T] {
	url := c.endpoints.base(svc) + path
	start := time.Now()

	resp, err := c.execute(ctx, svc, method, url, body)
	status := 0
	if resp != nil {
		status = resp.status
	}
	c.metrics.ObserveAPI(string(svc), method, status, time.Since(start))

	log := c.log.With(
		slog.String("service", string(svc)),
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	if resp == nil {
		apiErr := c.unavailable(path, err)
		log.WarnContext(ctx, "backend unreachable", slog.Any("error", err))
		return Result[T]{Err: apiErr}
	}

	if resp.status < 200 || resp.status > 299 {
		apiErr := c.decodeError(path, resp)
		log.WarnContext(ctx, "backend request failed", slog.String("message", apiErr.Message))
		return Result[T]{Err: apiErr}
	}

	var out T
	if err := decode(resp.body, &out); err != nil {
		log.WarnContext(ctx, "backend response undecodable", slog.Any("error", err))
		return Result[T]{Err: &model.APIError{
			Status:    http.StatusBadGateway,
			Kind:      "BAD_GATEWAY",
			Message:   "Réponse du serveur illisible",
			Path:      path,
			Timestamp: model.Timestamp(c.now()),
		}}
	}

	log.DebugContext(ctx, "backend request")
	return Result[T]{Value: out}
}

func (c *Client) execute(ctx context.Context, svc Service, method, url string, body any) (*response, error) {
	do := func() (any, error) {
		return c.roundTrip(ctx, method, url, body)
	}

	cb, ok := c.breakers[svc]
	if !ok {
		resp, err := do()
		r, _ := resp.(*response)
		return r, err
	}

	resp, err := cb.Execute(do)
	r, _ := resp.(*response)
	if r != nil && errors.Is(err, errServerStatus) {
		return r, nil
	}
	return r, err
}

func (c *Client) roundTrip(ctx context.Context, method, url string, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	r := &response{status: res.StatusCode, body: data}
	if res.StatusCode >= http.StatusInternalServerError {
		return r, errServerStatus
	}
	return r, nil
}

func (c *Client) unavailable(path string, cause error) *model.APIError {
	msg := "Service indisponible"
	if cause != nil && !errors.Is(cause, gobreaker.ErrOpenState) && !errors.Is(cause, gobreaker.ErrTooManyRequests) {
		msg = cause.Error()
	}
	return &model.APIError{
		Status:    http.StatusServiceUnavailable,
		Kind:      model.KindServiceUnavailable,
		Message:   msg,
		Path:      path,
		Timestamp: model.Timestamp(c.now()),
	}
}

func (c *Client) decodeError(path string, resp *response) *model.APIError {
	var apiErr model.APIError
	if err := json.Unmarshal(resp.body, &apiErr); err == nil && (apiErr.Message != "" || apiErr.Kind != "") {
		if apiErr.Status == 0 {
			apiErr.Status = resp.status
		}
		return &apiErr
	}

	return &model.APIError{
		Status:    resp.status,
		Kind:      strings.ToUpper(strings.ReplaceAll(http.StatusText(resp.status), " ", "_")),
		Message:   fmt.Sprintf("Request failed with status code %d", resp.status),
		Path:      path,
		Timestamp: model.Timestamp(c.now()),
	}
}

// decode reads a success body. Plain-text bodies are accepted for string
// targets; an empty body leaves the zero value.
func decode(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	err := json.Unmarshal(body, out)
	if err == nil {
		return nil
	}

	switch v := out.(type) {
	case *string:
		*v = string(body)
		return nil
	case *model.RiskLevel:
		*v = model.RiskLevel(strings.TrimSpace(string(body)))
		return nil
	}
	return err
}
