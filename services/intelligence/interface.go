package ai

import (
	"context"
	"errors"
)

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrEmptyPrompt   = errors.New("prompt is required")
	ErrInvalidImage  = errors.New("invalid image data URL")
	ErrNoImage       = errors.New("model returned no image")
	ErrInvalidAudio  = errors.New("invalid audio")
)

// Advisor answers a pet-care question for a species.
type Advisor interface {
	Advise(ctx context.Context, question, petType string) (string, error)
}

// ImageEditor applies a text instruction to an image.
type ImageEditor interface {
	EditImage(ctx context.Context, img Image, prompt string) (Image, error)
}

// Transcriber turns a spoken question into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)
}

// AdviceCache stores answers keyed by normalized question and species.
type AdviceCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, advice string) error
}
