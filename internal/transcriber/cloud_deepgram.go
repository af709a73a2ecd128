package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultDeepgramURL   = "https://api.deepgram.com/v1/listen"
	defaultDeepgramModel = "nova-2"
)

// DeepgramProvider uses Deepgram's pre-recorded REST API.
type DeepgramProvider struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

type deepgramResponse struct {
	Results *struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results,omitempty"`
	ErrCode string `json:"err_code,omitempty"`
	ErrMsg  string `json:"err_msg,omitempty"`
}

// NewDeepgramProvider builds a provider. endpoint may be empty for the public API.
func NewDeepgramProvider(apiKey, endpoint, model string) *DeepgramProvider {
	if endpoint == "" {
		endpoint = defaultDeepgramURL
	}
	if model == "" {
		model = defaultDeepgramModel
	}
	return &DeepgramProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   http.DefaultClient,
	}
}

func (p *DeepgramProvider) Name() string { return "deepgram" }

func (p *DeepgramProvider) Recognize(ctx context.Context, wav []byte, lang string) (string, error) {
	apiURL, err := p.buildURL(lang)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(wav))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepgram api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result deepgramResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if result.ErrMsg != "" {
		return "", fmt.Errorf("deepgram error %s: %s", result.ErrCode, result.ErrMsg)
	}

	if result.Results == nil || len(result.Results.Channels) == 0 {
		return "", nil
	}
	alts := result.Results.Channels[0].Alternatives
	if len(alts) == 0 {
		return "", nil
	}
	return alts[0].Transcript, nil
}

func (p *DeepgramProvider) buildURL(lang string) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", p.model)
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	if lang = deepgramLanguage(lang); lang != "" {
		q.Set("language", lang)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func deepgramLanguage(code string) string {
	if strings.EqualFold(code, "en") || strings.EqualFold(code, "en-us") || strings.EqualFold(code, "en_us") {
		return "en-US"
	}
	return code
}
