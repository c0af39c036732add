package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agrilens/agrilens/pkg/domain/model"
	"github.com/agrilens/agrilens/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

const DefaultOllamaURL = "http://localhost:11434"

// Ollama talks to an Ollama server over its HTTP API
type Ollama struct {
	baseURL  string
	hc       *http.Client
	models   model.ModelMapping
	fallback string
}

var (
	_ Advisor     = &Ollama{}
	_ ModelLister = &Ollama{}
)

type OllamaOption func(*Ollama)

func WithHTTPClient(hc *http.Client) OllamaOption {
	return func(o *Ollama) {
		o.hc = hc
	}
}

// WithModels sets the task to model mapping, usually the result of Negotiate
func WithModels(m model.ModelMapping) OllamaOption {
	return func(o *Ollama) {
		o.models = m
	}
}

func WithFallbackModel(name string) OllamaOption {
	return func(o *Ollama) {
		if name != "" {
			o.fallback = name
		}
	}
}

func NewOllama(baseURL string, opts ...OllamaOption) *Ollama {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	o := &Ollama{
		baseURL:  strings.TrimRight(baseURL, "/"),
		hc:       &http.Client{Timeout: 120 * time.Second},
		models:   model.ModelMapping{},
		fallback: DefaultFallbackModel,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Models returns the mapping in use
func (o *Ollama) Models() model.ModelMapping {
	return o.models
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	var resp tagsResponse
	if err := o.do(ctx, http.MethodGet, "/api/tags", nil, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		} else if m.Model != "" {
			names = append(names, m.Model)
		}
	}
	return names, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func (o *Ollama) Advise(ctx context.Context, task model.AdvisorTask, input *model.AdvisoryInput) (string, error) {
	name := o.models.For(task, o.fallback)
	req := chatRequest{
		Model: name,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(task)},
			{Role: "user", Content: UserPrompt(task, input)},
		},
	}

	var resp chatResponse
	if err := o.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", goerr.Wrap(err, "failed to chat with ollama", goerr.V("model", name), goerr.V("task", task))
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

func (o *Ollama) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+path, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("path", path))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := o.hc.Do(req)
	if err != nil {
		return goerr.Wrap(err, "ollama request failed", goerr.V("path", path))
	}
	defer safe.Close(ctx, resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return goerr.Wrap(err, "failed to read ollama response", goerr.V("path", path))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.New(fmt.Sprintf("ollama returned status %d", resp.StatusCode),
			goerr.V("path", path), goerr.V("body", string(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerr.Wrap(err, "failed to decode ollama response", goerr.V("path", path))
	}
	return nil
}
