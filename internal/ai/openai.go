package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOpenAIURL   = "https://api.deepseek.com/chat/completions"
	DefaultOpenAIModel = "deepseek-chat"
)

// OpenAIProvider talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIProvider struct {
	URL                string
	APIKey             string
	Model              string
	MaxTokens          int
	DefaultTemperature float64
	Client             *http.Client
}

type openAIMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatReq struct {
	Model       string      `json:"model"`
	Messages    []openAIMsg `json:"messages"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Stream      bool        `json:"stream"`
}

type openAIChatResp struct {
	Choices []struct {
		Message openAIMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAIProvider(url, apiKey, model string, maxTokens int, temperature float64, timeout time.Duration) *OpenAIProvider {
	if url == "" {
		url = DefaultOpenAIURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAIProvider{
		URL:                url,
		APIKey:             apiKey,
		Model:              model,
		MaxTokens:          maxTokens,
		DefaultTemperature: temperature,
		Client:             &http.Client{Timeout: timeout},
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, temperature *float64) (string, error) {
	const name = "openai"
	if p.Client == nil {
		return "", &TransportError{Provider: name, Err: errors.New("http client is nil")}
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return "", &TransportError{Provider: name, Err: errors.New("api key is required")}
	}

	temp := p.DefaultTemperature
	if temperature != nil {
		temp = *temperature
	}
	reqBody := openAIChatReq{
		Model:       p.Model,
		Messages:    []openAIMsg{{Role: "user", Content: prompt}},
		Temperature: temp,
		MaxTokens:   p.MaxTokens,
		Stream:      false,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(b))
	if err != nil {
		return "", &TransportError{Provider: name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", &TransportError{
			Provider:   name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var decoded openAIChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &TransportError{Provider: name, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", &TransportError{Provider: name, StatusCode: resp.StatusCode, Body: decoded.Error.Message}
	}
	if len(decoded.Choices) == 0 {
		return "", &EmptyResponseError{Provider: name}
	}
	return decoded.Choices[0].Message.Content, nil
}
