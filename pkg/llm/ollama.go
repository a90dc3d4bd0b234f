package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
)

// Ollama implements Provider against an Ollama server's HTTP API.
type Ollama struct {
	baseURL     string
	chatModel   string
	embedModel  string
	temperature float64
	maxTokens   int
	client      *http.Client
}

var _ Provider = (*Ollama)(nil)

// NewOllama builds an Ollama provider from finalized config.
func NewOllama(cfg *Config) *Ollama {
	return &Ollama{
		baseURL:     cfg.URL,
		chatModel:   cfg.ChatModel,
		embedModel:  cfg.EmbedModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
	}
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Tools    []ToolDef      `json:"tools,omitempty"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role      string     `json:"role"`
		Content   string     `json:"content"`
		ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Chat sends the conversation to /api/chat and returns the reply, including
// any structured tool calls the model produced.
func (o *Ollama) Chat(ctx context.Context, messages []Message, options ...Option) (*ChatResponse, error) {
	opts := o.defaults()
	for _, opt := range options {
		opt(opts)
	}

	payload := ollamaChatRequest{
		Model:    opts.Model,
		Messages: messages,
		Stream:   false,
		Tools:    opts.Tools,
		Options: &ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}

	if opts.JSON {
		payload.Format = "json"
	}

	body, err := o.post(ctx, "/api/chat", payload)
	if err != nil {
		return nil, err
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal chat response: %w", err)
	}

	return &ChatResponse{
		Model:     parsed.Model,
		Content:   parsed.Message.Content,
		ToolCalls: parsed.Message.ToolCalls,
	}, nil
}

// Generate sends prompt as a single user message. Chat-tuned models answer
// single prompts through the chat endpoint, so Generate reuses Chat.
func (o *Ollama) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	resp, err := o.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
	if err != nil {
		return "", err
	}

	if resp.Content == "" && len(resp.ToolCalls) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Content, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns a unit-length embedding vector for input from
// /api/embeddings. Cosine distance over stored vectors expects unit length.
func (o *Ollama) Embed(ctx context.Context, input string) ([]float32, error) {
	body, err := o.post(ctx, "/api/embeddings", ollamaEmbedRequest{
		Model:  o.embedModel,
		Prompt: input,
	})
	if err != nil {
		return nil, err
	}

	var parsed ollamaEmbedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}

	if len(parsed.Embedding) == 0 {
		return nil, ErrEmptyResponse
	}

	vector := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		vector[i] = float32(v)
	}

	return normalize(vector), nil
}

func (o *Ollama) defaults() *Options {
	return &Options{
		Model:       o.chatModel,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
}

func (o *Ollama) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d: %s", ErrRequestFailed, path, resp.StatusCode, body)
	}

	return body, nil
}

func normalize(vector []float32) []float32 {
	var magnitude float64
	for _, v := range vector {
		magnitude += float64(v) * float64(v)
	}

	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return vector
	}

	normalized := make([]float32, len(vector))
	for i, v := range vector {
		normalized[i] = float32(float64(v) / magnitude)
	}

	return normalized
}
