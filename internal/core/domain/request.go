package domain

// GenerationRequest is the caller-supplied input to the generation service.
type GenerationRequest struct {
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Handle references an artifact produced by a successful generation call.
// Services either return a fetchable URL or the artifact bytes inline.
type Handle struct {
	URL      string
	Data     []byte
	MIMEType string
}

// Inline reports whether the artifact bytes travelled with the handle.
func (h Handle) Inline() bool {
	return len(h.Data) > 0
}

// IsZero reports whether the handle references nothing.
func (h Handle) IsZero() bool {
	return h.URL == "" && len(h.Data) == 0
}

// BatchItem is one unit of work for a batch run.
type BatchItem struct {
	Request GenerationRequest `yaml:",inline"`
	Caption string            `yaml:"caption"`
}

// Attempt is one generation call made by the retry controller.
type Attempt struct {
	Number int
	Err    error
}
