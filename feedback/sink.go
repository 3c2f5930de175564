package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sink receives each newly appended record. Sinks are best-effort: the
// store logs their failures and moves on, the local append is already
// durable by the time a sink runs.
type Sink interface {
	Name() string
	Forward(ctx context.Context, sub Submission) error
}

// HTTPSink posts submission fields as JSON to a remote append endpoint,
// e.g. the hosted CSV writer the portal used before it had a backend.
type HTTPSink struct {
	url    string
	client *http.Client
}

func NewHTTPSink(url string) *HTTPSink {
	return &HTTPSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSink) Name() string { return "http" }

func (s *HTTPSink) Forward(ctx context.Context, sub Submission) error {
	body, err := json.Marshal(sub.Fields)
	if err != nil {
		return fmt.Errorf("encode submission %s: %w", sub.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post to %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("post to %s: status %d", s.url, resp.StatusCode)
	}
	return nil
}
