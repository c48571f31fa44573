// Package openai talks to an OpenAI-compatible images API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/generation"
)

const (
	DefaultBaseURL = "https://api.openai.com"
	DefaultModel   = "dall-e-3"
	DefaultSize    = "1024x1024"
	DefaultQuality = "standard"
)

// Config holds the images API settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Size    string
	Quality string
	// Timeout bounds the HTTP exchange. The retry controller also bounds each attempt.
	Timeout time.Duration
}

// Client implements generation.Generator against /v1/images/generations.
type Client struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
}

// New creates an images API client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Size == "" {
		cfg.Size = DefaultSize
	}
	if cfg.Quality == "" {
		cfg.Quality = DefaultQuality
	}

	return &Client{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/v1/images/generations",
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type imagesRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	N       int    `json:"n"`
}

type imagesResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Generate requests a single image for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (domain.Handle, error) {
	body, err := json.Marshal(imagesRequest{
		Model:   c.cfg.Model,
		Prompt:  prompt,
		Size:    c.cfg.Size,
		Quality: c.cfg.Quality,
		N:       1,
	})
	if err != nil {
		return domain.Handle{}, generation.NewError(generation.KindInvalidRequest, 0, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Handle{}, generation.NewError(generation.KindInvalidRequest, 0, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Handle{}, transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Handle{}, transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.Handle{}, statusError(resp.StatusCode, data)
	}

	var out imagesResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.Handle{}, generation.NewError(generation.KindServerError, resp.StatusCode, "malformed response", err)
	}
	if len(out.Data) == 0 {
		return domain.Handle{}, generation.NewError(generation.KindServerError, resp.StatusCode, "no image in response", nil)
	}

	img := out.Data[0]
	switch {
	case img.URL != "":
		return domain.Handle{URL: img.URL, MIMEType: "image/png"}, nil
	case img.B64JSON != "":
		raw, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return domain.Handle{}, generation.NewError(generation.KindServerError, resp.StatusCode, "bad image encoding", err)
		}
		return domain.Handle{Data: raw, MIMEType: "image/png"}, nil
	default:
		return domain.Handle{}, generation.NewError(generation.KindServerError, resp.StatusCode, "empty image entry", nil)
	}
}

func statusError(status int, body []byte) *generation.Error {
	var er errorResponse
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		msg = er.Error.Message
	}

	var kind generation.Kind
	switch {
	case er.Error.Code == "content_policy_violation":
		kind = generation.KindContentPolicy
	case status == http.StatusTooManyRequests && er.Error.Code == "insufficient_quota":
		kind = generation.KindUnauthorized
	case status == http.StatusTooManyRequests:
		kind = generation.KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = generation.KindTimeout
	case status >= 500:
		kind = generation.KindServerError
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = generation.KindUnauthorized
	default:
		kind = generation.KindInvalidRequest
	}
	return generation.NewError(kind, status, msg, nil)
}

func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		// Caller gave up or the attempt deadline passed; not a service failure.
		return fmt.Errorf("images request: %w", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return generation.NewError(generation.KindTimeout, 0, "images request timed out", err)
	}
	return generation.NewError(generation.KindServerError, 0, "images request failed", err)
}

var _ generation.Generator = (*Client)(nil)
