package review

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaClient generates reviews with a local Ollama model.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient connects to host, or to the OLLAMA_HOST default when host
// is empty.
func NewOllamaClient(host, model string, httpClient *http.Client) (*OllamaClient, error) {
	base := envconfig.Host()
	if host != "" {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("parse ollama host: %w", err)
		}
		base = u
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	// Copy so the caller's client is left untouched.
	hc := *httpClient
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = &statusRecorder{next: next}
	return &OllamaClient{
		client: api.NewClient(base, &hc),
		model:  model,
	}, nil
}

type statusKey struct{}

// statusRecorder stores each response's status code in the *int carried
// by the request context. The api client turns error bodies into plain
// errors and drops the status, which is needed to tell overload from a
// bad request.
type statusRecorder struct {
	next http.RoundTripper
}

func (t *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err == nil {
		if p, ok := req.Context().Value(statusKey{}).(*int); ok {
			*p = resp.StatusCode
		}
	}
	return resp, err
}

func (c *OllamaClient) Name() string { return "ollama" }

func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.1,
		},
	}

	var status int
	ctx = context.WithValue(ctx, statusKey{}, &status)

	var sb strings.Builder
	err := c.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := sb.WriteString(resp.Response)
		return err
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
		}
		if retryableStatus(status) {
			return "", &RetryableError{Provider: c.Name(), StatusCode: status, Message: truncate(err.Error(), 200)}
		}
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from ollama")
	}
	return sb.String(), nil
}
