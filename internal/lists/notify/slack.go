package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"listmgmt/internal/platform/metrics"
	"listmgmt/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the webhook is considered unhealthy.
var ErrCircuitOpen = errors.New("notification circuit open")

const defaultSlackTimeout = 5 * time.Second

// SlackSink posts messages to a Slack incoming webhook. Repeated failures
// open a circuit breaker so an unreachable webhook is not hammered.
type SlackSink struct {
	webhookURL string
	client     *http.Client
	breaker    *circuit.Breaker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// SlackOption configures a SlackSink.
type SlackOption func(*SlackSink)

func WithHTTPClient(c *http.Client) SlackOption {
	return func(s *SlackSink) {
		s.client = c
	}
}

func WithBreaker(b *circuit.Breaker) SlackOption {
	return func(s *SlackSink) {
		s.breaker = b
	}
}

func WithSlackMetrics(m *metrics.Metrics) SlackOption {
	return func(s *SlackSink) {
		s.metrics = m
	}
}

func WithSlackLogger(logger *slog.Logger) SlackOption {
	return func(s *SlackSink) {
		s.logger = logger
	}
}

func NewSlack(webhookURL string, opts ...SlackOption) (*SlackSink, error) {
	if webhookURL == "" {
		return nil, errors.New("slack webhook URL is required")
	}
	s := &SlackSink{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: defaultSlackTimeout},
		breaker:    circuit.New("slack", circuit.WithFailureThreshold(3), circuit.WithCooldown(time.Minute)),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *SlackSink) Notify(ctx context.Context, message string) error {
	if !s.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := s.post(ctx, message); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.metrics.CircuitState(s.breaker.Name(), true)
			s.logger.WarnContext(ctx, "slack circuit opened", "error", err)
		}
		return err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.metrics.CircuitState(s.breaker.Name(), false)
		s.logger.InfoContext(ctx, "slack circuit closed")
	}
	return nil
}

func (s *SlackSink) post(ctx context.Context, message string) error {
	body, err := json.Marshal(slackPayload{Text: message})
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned %d", resp.StatusCode)
	}
	return nil
}
