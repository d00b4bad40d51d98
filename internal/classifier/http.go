package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a single HTTP round trip to the model server.
	DefaultTimeout = 30 * time.Second

	userAgent = "playlist-curator/1.0"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Config holds zero-shot inference server settings.
type Config struct {
	URL     string        // Endpoint accepting the zero-shot request
	Token   string        // Optional bearer token
	Timeout time.Duration // HTTP client timeout
}

// zeroShotRequest is the request body understood by Hugging Face style
// zero-shot classification endpoints.
type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// zeroShotResponse lists labels and scores in parallel arrays, usually
// sorted by descending score.
type zeroShotResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
	Error    string    `json:"error,omitempty"`
}

// HTTPClient calls a zero-shot classification server over HTTP.
type HTTPClient struct {
	config     Config
	httpClient *http.Client
}

// NewHTTPClient creates a client for the configured endpoint.
func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &HTTPClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Classify sends the prompt with every label and multi_label enabled.
func (c *HTTPClient) Classify(ctx context.Context, prompt string, labels []string) (Scores, error) {
	if err := checkInput(prompt, labels); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(zeroShotRequest{
		Inputs: prompt,
		Parameters: zeroShotParameters{
			CandidateLabels: labels,
			MultiLabel:      true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %w", ErrFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrFailure, err)
	}

	var out zeroShotResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("%w: model server %s: %s", ErrFailure, resp.Status, out.Error)
		}
		return nil, fmt.Errorf("%w: model server %s", ErrFailure, resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: parsing response: %v", ErrFailure, decodeErr)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrFailure, out.Error)
	}

	return toScores(out)
}

func toScores(resp zeroShotResponse) (Scores, error) {
	if len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("%w: %d labels but %d scores", ErrFailure, len(resp.Labels), len(resp.Scores))
	}

	scores := make(Scores, len(resp.Labels))
	for i, l := range resp.Labels {
		scores[l] = resp.Scores[i]
	}
	return scores, nil
}
