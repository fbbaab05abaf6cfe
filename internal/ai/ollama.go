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

type OllamaProvider struct {
	BaseURL            string
	Model              string
	MaxTokens          int
	DefaultTemperature float64
	Client             *http.Client
}

func NewOllamaProvider(baseURL, model string, maxTokens int, temperature float64, timeout time.Duration) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3:latest"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OllamaProvider{
		BaseURL:            baseURL,
		Model:              model,
		MaxTokens:          maxTokens,
		DefaultTemperature: temperature,
		Client:             &http.Client{Timeout: timeout},
	}
}

type ollamaMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatReq struct {
	Model    string        `json:"model"`
	Messages []ollamaMsg   `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaChatResp struct {
	Message ollamaMsg `json:"message"`
	Error   string    `json:"error,omitempty"`
}

func (p *OllamaProvider) Complete(ctx context.Context, prompt string, temperature *float64) (string, error) {
	const name = "ollama"
	if p.Client == nil {
		return "", &TransportError{Provider: name, Err: errors.New("http client is nil")}
	}

	temp := p.DefaultTemperature
	if temperature != nil {
		temp = *temperature
	}
	reqBody := ollamaChatReq{
		Model:    p.Model,
		Stream:   false,
		Messages: []ollamaMsg{{Role: "user", Content: prompt}},
		Options:  ollamaOptions{Temperature: temp, NumPredict: p.MaxTokens},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/chat", strings.TrimRight(p.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", &TransportError{Provider: name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", &TransportError{Provider: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", &TransportError{Provider: name, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded ollamaChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &TransportError{Provider: name, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	if decoded.Error != "" {
		return "", &TransportError{Provider: name, StatusCode: resp.StatusCode, Body: decoded.Error}
	}
	if strings.TrimSpace(decoded.Message.Content) == "" {
		return "", &EmptyResponseError{Provider: name}
	}
	return decoded.Message.Content, nil
}
