package generation

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// contentGenerator is the subset of genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements Generator on top of the Gemini API.
type GeminiGenerator struct {
	models      contentGenerator
	model       string
	temperature float32
}

// NewGeminiGenerator creates a generator backed by the Gemini API.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGeminiGenerator(client.Models, cfg), nil
}

func newGeminiGenerator(models contentGenerator, cfg GeminiConfig) *GeminiGenerator {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{
		models:      models,
		model:       model,
		temperature: cfg.Temperature,
	}
}

// Generate runs one schema-constrained generation call.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, toContents(req.Messages), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return extractJSON(resp)
}

// toContents maps the conversation onto Gemini roles. Gemini has no tool role
// for plain-text tool output, so tool results are sent as labelled user turns.
func toContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleModel:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleModel))
		case RoleTool:
			contents = append(contents, genai.NewContentFromText("Tool result:\n"+m.Text, genai.RoleUser))
		default:
			contents = append(contents, genai.NewContentFromText(m.Text, genai.RoleUser))
		}
	}
	return contents
}

func extractJSON(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", ErrNoStructuredOutput)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrNoStructuredOutput, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrNoStructuredOutput)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("%w: empty text (finish reason %s)", ErrNoStructuredOutput, resp.Candidates[0].FinishReason)
	}

	// Schema-constrained output is a single JSON object. Malformed objects
	// are left to the caller's repair step.
	if !strings.HasPrefix(text, "{") {
		return nil, fmt.Errorf("%w: output is not a JSON object", ErrNoStructuredOutput)
	}
	return []byte(text), nil
}
