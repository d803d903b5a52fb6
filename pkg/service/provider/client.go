package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/memora/pkg/domain/interfaces"
	"github.com/secmon-lab/memora/pkg/utils/logging"
	"github.com/secmon-lab/memora/pkg/utils/safe"
)

// maxResponseSize bounds how much of a provider response is read.
const maxResponseSize = 8 << 20

// Client talks to heterogeneous HTTP completion, embedding and zero-shot
// classification endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var (
	_ interfaces.Completer  = &Client{}
	_ interfaces.Embedder   = &Client{}
	_ interfaces.Classifier = &Client{}
)

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

func NewClient(cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.timeout()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends prompt to the completion endpoint and returns the
// normalized text.
func (c *Client) Complete(ctx context.Context, prompt, systemInstructions string) (string, error) {
	url := c.cfg.CompletionURL
	if url == "" {
		return "", goerr.Wrap(ErrNotConfigured, "set a completion endpoint URL or enable the dev mock")
	}
	if c.cfg.CompletionKey == "" && c.cfg.requiresKey(url) {
		return "", goerr.Wrap(ErrKeyMissing, "set the completion API key", goerr.V("url", url))
	}

	payload := buildCompletionPayload(url, c.cfg.completionModel(), prompt, systemInstructions)
	body, err := c.post(ctx, url, c.cfg.CompletionKey, payload)
	if err != nil {
		return "", goerr.Wrap(ErrRequestFailed, "completion call did not succeed",
			goerr.V("url", url),
			goerr.V("cause", err.Error()))
	}

	out := NormalizeOutput(body)
	logging.From(ctx).Debug("completion response normalized", "shape", out.Shape)
	return out.Text, nil
}

// Embed returns the embedding of text, or nil if no endpoint is configured
// or the call fails.
func (c *Client) Embed(ctx context.Context, text string) []float32 {
	url := c.cfg.EmbeddingURL
	if url == "" {
		return nil
	}
	if c.cfg.EmbeddingKey == "" && c.cfg.requiresKey(url) {
		logging.From(ctx).Warn("embedding endpoint requires an API key, skipping", "url", url)
		return nil
	}

	payload := buildEmbeddingPayload(url, c.cfg.EmbeddingModel, text, c.cfg.EmbeddingListInput)
	body, err := c.post(ctx, url, c.cfg.EmbeddingKey, payload)
	if err != nil {
		logging.From(ctx).Warn("embedding request failed", "error", err, "url", url)
		return nil
	}

	vec := NormalizeEmbedding(body)
	if vec == nil {
		logging.From(ctx).Warn("unrecognized embedding response", "url", url, "size", len(body))
	}
	return vec
}

// Classify asks the zero-shot classifier to rank labels for text.
func (c *Client) Classify(ctx context.Context, text string, labels []string) ([]string, error) {
	url := c.cfg.ClassifierURL
	if url == "" {
		return nil, goerr.New("classifier endpoint is not configured")
	}

	payload := classifierRequest{
		Inputs:     text,
		Parameters: classifierParameters{CandidateLabels: labels},
	}
	body, err := c.post(ctx, url, c.cfg.ClassifierKey, payload)
	if err != nil {
		return nil, goerr.Wrap(err, "classifier request failed", goerr.V("url", url))
	}

	var resp classifierResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to decode classifier response")
	}
	return resp.Labels, nil
}

func (c *Client) post(ctx context.Context, url, key string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request")
	}
	defer func() {
		safe.Drain(ctx, resp.Body)
		safe.Close(ctx, resp.Body)
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.New("unexpected status code",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", truncate(string(body), 512)))
	}
	return body, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
