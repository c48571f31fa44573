// Package fake provides a local generator for dry runs and tests.
package fake

import (
	"bytes"
	"context"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"github.com/vietddude/genpost/internal/core/domain"
	"github.com/vietddude/genpost/internal/generation"
)

// Config controls the fake generator. FailFirst attempts per prompt fail
// with FailKind before it starts succeeding.
type Config struct {
	FailFirst int
	FailKind  generation.Kind
	Latency   time.Duration
	Size      int
}

// Generator renders a flat-colored PNG derived from the prompt.
type Generator struct {
	cfg Config

	mu       sync.Mutex
	attempts map[string]int
}

func New(cfg Config) *Generator {
	if cfg.Size <= 0 {
		cfg.Size = 64
	}
	if cfg.FailKind == generation.KindUnknown {
		cfg.FailKind = generation.KindServerError
	}
	return &Generator{cfg: cfg, attempts: make(map[string]int)}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (domain.Handle, error) {
	if g.cfg.Latency > 0 {
		select {
		case <-ctx.Done():
			return domain.Handle{}, ctx.Err()
		case <-time.After(g.cfg.Latency):
		}
	}

	g.mu.Lock()
	g.attempts[prompt]++
	n := g.attempts[prompt]
	g.mu.Unlock()

	if n <= g.cfg.FailFirst {
		return domain.Handle{}, generation.NewError(g.cfg.FailKind, 0, "scripted failure", nil)
	}

	data, err := render(prompt, g.cfg.Size)
	if err != nil {
		return domain.Handle{}, err
	}
	return domain.Handle{Data: data, MIMEType: "image/png"}, nil
}

// Attempts returns how many calls were made for prompt.
func (g *Generator) Attempts(prompt string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts[prompt]
}

func render(prompt string, size int) ([]byte, error) {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	sum := h.Sum32()
	c := color.RGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ generation.Generator = (*Generator)(nil)
