package oracle

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

//go:embed prompts/explain.txt
var explainPrompt string

var explainTemplate = template.Must(template.New("explain").Parse(explainPrompt))

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("no content returned from Gemini")

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini narrates turns and explains grammar using the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini connects to the Gemini API with apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

// Generate sends one request made of the system prompt, the turn context and
// the player's input, and returns the raw text of the answer.
func (g *Gemini) Generate(ctx context.Context, systemPrompt, turnContext, playerInput string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	if systemPrompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	}

	parts := []genai.Part{genai.Text(turnContext)}
	if playerInput != "" {
		parts = append(parts, genai.Text("Player: "+playerInput))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// ExplainRequest describes a /learn question.
type ExplainRequest struct {
	Language string
	Topic    string
	Lesson   string
}

// Explain asks the model for a short grammar explanation.
func (g *Gemini) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	var buf bytes.Buffer
	if err := explainTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	text, err := g.Generate(ctx, "", buf.String(), "")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response type from Gemini: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}
