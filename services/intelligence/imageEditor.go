package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"

	"google.golang.org/genai"
)

var dataURLPattern = regexp.MustCompile(`^data:([^;]+);base64,(.+)$`)

// Image is decoded image content.
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseDataURL decodes a base64 data URL.
func ParseDataURL(s string) (Image, error) {
	m := dataURLPattern.FindStringSubmatch(s)
	if m == nil {
		return Image{}, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return Image{MIMEType: m[1], Data: data}, nil
}

// DataURL encodes the image back into a data URL.
func (img Image) DataURL() string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

type GenAIImageEditor struct {
	client *genai.Client
	model  string
}

func NewGenAIImageEditor(ctx context.Context, apiKey, model string) (*GenAIImageEditor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIImageEditor{client: client, model: model}, nil
}

// EditImage returns the first inline image of the first candidate, or
// ErrNoImage when the model answered without one.
func (e *GenAIImageEditor) EditImage(ctx context.Context, img Image, prompt string) (Image, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return Image{}, fmt.Errorf("GenAI image edit failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Image{}, ErrNoImage
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, nil
		}
	}
	return Image{}, ErrNoImage
}
