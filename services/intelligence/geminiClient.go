package ai

import (
	"context"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	FallbackNoAnswer    = "Desculpe, não consegui processar seu pedido agora."
	FallbackUnavailable = "Estou tendo problemas para me conectar. Tente novamente mais tarde."
)

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: client.GenerativeModel(model)}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// advicePrompt frames the question for the clinic's assistant.
func advicePrompt(question, petType string) string {
	if petType == "" {
		petType = "pet"
	}
	return fmt.Sprintf(`Você é um assistente virtual especialista em cuidados com pets para a JE Pet.
Um cliente perguntou sobre um %s: "%s".
Dê conselhos úteis, amigáveis e profissionais.
Sempre lembre o cliente que esta IA não substitui uma consulta veterinária presencial na JE Pet.`, petType, question)
}

func (g *GeminiClient) Advise(ctx context.Context, question, petType string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(advicePrompt(question, petType)))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
