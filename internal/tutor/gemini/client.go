// Package gemini calls the Generative Language REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/tutor"
)

const keyName = "GEMINI_API_KEY"

// Config holds connection details for the language model.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client implements tutor.Responder.
type Client struct {
	httpClient *http.Client
	config     Config
	endpoint   string
	logger     zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	model := strings.TrimPrefix(cfg.Model, "models/")

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		endpoint:   strings.TrimSuffix(cfg.BaseURL, "/") + "/v1beta/models/" + model + ":generateContent",
		logger:     logger.With().Str("component", "gemini_client").Logger(),
	}
}

// Generate sends prompt as a single user turn and returns the first
// candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.config.APIKey == "" {
		return "", &tutor.MissingCredentialError{Name: keyName}
	}

	var payload generateRequest
	payload.Contents = []content{{Parts: []part{{Text: prompt}}}}
	payload.GenerationConfig = generationConfig{Temperature: 0.7, MaxOutputTokens: 1024}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.config.APIKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &tutor.UpstreamError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("body", strings.TrimSpace(string(snippet))).
			Msg("language model rejected request")
		return "", &tutor.UpstreamError{Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &tutor.UpstreamError{Status: resp.StatusCode, Reason: "malformed response", Err: err}
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		reason := "no candidates"
		if out.PromptFeedback.BlockReason != "" {
			reason = "blocked: " + out.PromptFeedback.BlockReason
		}
		return "", &tutor.UpstreamError{Status: resp.StatusCode, Reason: reason}
	}

	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", &tutor.UpstreamError{Status: resp.StatusCode, Reason: "empty candidate"}
	}
	return text, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}
