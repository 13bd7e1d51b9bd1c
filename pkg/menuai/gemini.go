package menuai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"menu-lens-be/internal/progress"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEngine implements Engine over the Gemini API. A client is created per
// call; the API is stateless and the pipeline makes few calls per session.
type GeminiEngine struct {
	APIKey string
	Model  string
}

func NewGeminiEngine(apiKey, model string) *GeminiEngine {
	return &GeminiEngine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *GeminiEngine) generate(ctx context.Context, system string, parts ...genai.Part) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GOOGLE_GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func (e *GeminiEngine) ExtractText(ctx context.Context, image []byte, mimeType string) ([]string, error) {
	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" {
		format = "jpeg"
	}
	raw, err := e.generate(ctx, extractPrompt, genai.ImageData(format, image))
	if err != nil {
		return nil, err
	}

	var out struct {
		Lines []string `json:"lines"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("gemini extract: bad JSON: %w", err)
	}
	return out.Lines, nil
}

func (e *GeminiEngine) ClassifyMenu(ctx context.Context, lines []string) (map[string][]progress.MenuItem, error) {
	raw, err := e.generate(ctx, classifyPrompt, genai.Text(strings.Join(lines, "\n")))
	if err != nil {
		return nil, err
	}

	var out struct {
		Categories map[string][]progress.MenuItem `json:"categories"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("gemini classify: bad JSON: %w", err)
	}
	return out.Categories, nil
}

func (e *GeminiEngine) TranslateCategory(ctx context.Context, category string, items []progress.MenuItem) ([]progress.MenuItem, error) {
	return e.itemsCall(ctx, translatePrompt, category, items)
}

func (e *GeminiEngine) EnrichCategory(ctx context.Context, category string, items []progress.MenuItem) ([]progress.MenuItem, error) {
	return e.itemsCall(ctx, enrichPrompt, category, items)
}

// IllustrateItem is not wired to an image model yet; dishes simply render
// without pictures. TODO: switch to the Imagen endpoint once the API key
// gains access to it.
func (e *GeminiEngine) IllustrateItem(ctx context.Context, item progress.MenuItem) (string, error) {
	return "", nil
}

func (e *GeminiEngine) itemsCall(ctx context.Context, system, category string, items []progress.MenuItem) ([]progress.MenuItem, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"category": category,
		"items":    items,
	})
	if err != nil {
		return nil, err
	}

	raw, err := e.generate(ctx, system, genai.Text(string(payload)))
	if err != nil {
		return nil, err
	}

	var out struct {
		Items []progress.MenuItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("gemini items call: bad JSON: %w", err)
	}
	return out.Items, nil
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini: no text parts in response")
	}
	return b.String(), nil
}

// stripFences removes a ```json ... ``` wrapper the model sometimes adds
// despite the JSON response MIME type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }
