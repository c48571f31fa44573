// Package gemini generates images with Imagen through the genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
	"google.golang.org/genproto/googleapis/rpc/code"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/generation"
)

const DefaultModel = "imagen-3.0-generate-002"

// Config holds the Imagen settings.
type Config struct {
	APIKey      string
	Model       string
	AspectRatio string
}

// imageModels is the subset of genai.Models used here.
type imageModels interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Client implements generation.Generator with Imagen.
type Client struct {
	models      imageModels
	model       string
	aspectRatio string
}

// New creates a Gemini API backed client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return newClient(cli.Models, cfg), nil
}

func newClient(models imageModels, cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model, aspectRatio: cfg.AspectRatio}
}

// Generate requests one image and returns its bytes inline.
func (c *Client) Generate(ctx context.Context, prompt string) (domain.Handle, error) {
	resp, err := c.models.GenerateImages(ctx, c.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages:   1,
		AspectRatio:      c.aspectRatio,
		IncludeRAIReason: true,
		OutputMIMEType:   "image/png",
	})
	if err != nil {
		return domain.Handle{}, mapError(ctx, err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		// Imagen drops filtered images silently when no reason is requested.
		return domain.Handle{}, generation.NewError(generation.KindContentPolicy, 0, "no image returned", nil)
	}

	img := resp.GeneratedImages[0]
	if img.RAIFilteredReason != "" {
		return domain.Handle{}, generation.NewError(generation.KindContentPolicy, 0, img.RAIFilteredReason, nil)
	}
	if img.Image == nil || len(img.Image.ImageBytes) == 0 {
		return domain.Handle{}, generation.NewError(generation.KindServerError, 0, "empty image payload", nil)
	}

	mime := img.Image.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return domain.Handle{Data: img.Image.ImageBytes, MIMEType: mime}, nil
}

func mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("generate images: %w", err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fromAPIError(*apiErrPtr, err)
	}
	return generation.NewError(generation.KindServerError, 0, "generate images failed", err)
}

func fromAPIError(apiErr genai.APIError, cause error) *generation.Error {
	return generation.NewError(kindFor(apiErr.Code, apiErr.Status, apiErr.Message), apiErr.Code, apiErr.Message, cause)
}

// kindFor maps an HTTP code and google.rpc status name to a failure kind.
func kindFor(httpCode int, status, message string) generation.Kind {
	if isSafetyMessage(message) {
		return generation.KindContentPolicy
	}

	switch code.Code(code.Code_value[status]) {
	case code.Code_RESOURCE_EXHAUSTED:
		return generation.KindRateLimited
	case code.Code_UNAVAILABLE, code.Code_INTERNAL, code.Code_ABORTED:
		return generation.KindServerError
	case code.Code_DEADLINE_EXCEEDED:
		return generation.KindTimeout
	case code.Code_UNAUTHENTICATED, code.Code_PERMISSION_DENIED:
		return generation.KindUnauthorized
	case code.Code_INVALID_ARGUMENT, code.Code_FAILED_PRECONDITION, code.Code_NOT_FOUND, code.Code_OUT_OF_RANGE:
		return generation.KindInvalidRequest
	}

	switch {
	case httpCode == 429:
		return generation.KindRateLimited
	case httpCode == 408 || httpCode == 504:
		return generation.KindTimeout
	case httpCode >= 500:
		return generation.KindServerError
	case httpCode == 401 || httpCode == 403:
		return generation.KindUnauthorized
	default:
		return generation.KindInvalidRequest
	}
}

func isSafetyMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, s := range []string{"safety", "responsible ai", "blocked", "content policy"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

var _ generation.Generator = (*Client)(nil)
