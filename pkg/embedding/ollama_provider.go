package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaProvider is a local alternative for development without a Gemini key.
type OllamaProvider struct {
	BaseURL string
	Model   string
}

func NewOllamaProvider(baseURL, model string) Provider {
	return &OllamaProvider{BaseURL: baseURL, Model: model}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *OllamaProvider) Generate(text string, _ string) ([]float32, error) {
	raw, err := json.Marshal(ollamaRequest{Model: p.Model, Prompt: text})
	if err != nil {
		return nil, err
	}

	res, err := http.Post(p.BaseURL+"/api/embeddings", "application/json", bytes.NewBuffer(raw))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding error, code %d, body %s", res.StatusCode, string(body))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed.Embedding, nil
}
