package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingKey means no Google API key is configured.
var ErrMissingKey = errors.New("google speech api key is not configured")

// GoogleConfig holds endpoints and the API key.
type GoogleConfig struct {
	APIKey  string
	TTSURL  string
	STTURL  string
	Timeout time.Duration
}

// GoogleClient calls Cloud Text-to-Speech and Speech-to-Text over REST.
type GoogleClient struct {
	httpClient *http.Client
	config     GoogleConfig
	logger     zerolog.Logger
}

// NewGoogleClient creates a client with the configured HTTP timeout.
func NewGoogleClient(cfg GoogleConfig, logger zerolog.Logger) *GoogleClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleClient{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "google_speech").Logger(),
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		SSMLGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

// Synthesize returns MP3 audio for text in the given voice language.
func (g *GoogleClient) Synthesize(ctx context.Context, text, languageTag string) ([]byte, error) {
	var req synthesizeRequest
	req.Input.Text = text
	req.Voice.LanguageCode = languageTag
	req.Voice.SSMLGender = "FEMALE"
	req.AudioConfig.AudioEncoding = "MP3"

	var resp struct {
		AudioContent string `json:"audioContent"`
	}
	if err := g.post(ctx, g.config.TTSURL, req, &resp); err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("synthesize: empty audio")
	}
	return audio, nil
}

type recognizeRequest struct {
	Config struct {
		Encoding        string `json:"encoding,omitempty"`
		SampleRateHertz int    `json:"sampleRateHertz,omitempty"`
		LanguageCode    string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe sends clip to speech:recognize and joins the top alternatives.
func (g *GoogleClient) Transcribe(ctx context.Context, clip Clip, languageTag string) (string, error) {
	var req recognizeRequest
	req.Config.Encoding = clip.Encoding
	req.Config.SampleRateHertz = clip.SampleRateHertz
	req.Config.LanguageCode = languageTag
	req.Audio.Content = base64.StdEncoding.EncodeToString(clip.Data)

	var resp recognizeResponse
	if err := g.post(ctx, g.config.STTURL, req, &resp); err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	parts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(r.Alternatives[0].Transcript))
		}
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return "", errors.New("recognize: no speech detected")
	}
	return text, nil
}

func (g *GoogleClient) post(ctx context.Context, endpoint string, in, out interface{}) error {
	if g.config.APIKey == "" {
		return ErrMissingKey
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", g.config.APIKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
