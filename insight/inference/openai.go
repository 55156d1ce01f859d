// media-insight (minsight) - Media Insight CLI tool
// Copyright (C) 2026  Harrison Wang <https://mingest.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	defaultSystemPrompt = "You are a careful media analyst. Reply with a single JSON object and nothing else."
	defaultTimeout      = 90 * time.Second
)

// OpenAIConfig configures an OpenAI-compatible chat completion endpoint.
type OpenAIConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	// Referer and Title are sent as OpenRouter attribution headers.
	Referer      string
	Title        string
	SystemPrompt string
	Temperature  float64
	// JSONMode requests a json_object response format, falling back to plain
	// text when the gateway rejects it.
	JSONMode bool
	Timeout  time.Duration
}

// OpenAIGenerator is a TextGenerator backed by the chat completions API.
type OpenAIGenerator struct {
	client openai.Client
	cfg    OpenAIConfig
}

func NewOpenAIGenerator(cfg OpenAIConfig, opts ...option.RequestOption) *OpenAIGenerator {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Client retries its own attempts; the SDK must not multiply them.
		option.WithMaxRetries(0),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Provider == ProviderOpenRouter {
		clientOpts = append(clientOpts, option.WithHeader("HTTP-Referer", cfg.Referer))
		clientOpts = append(clientOpts, option.WithHeader("X-Title", cfg.Title))
	}
	clientOpts = append(clientOpts, opts...)

	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &OpenAIGenerator{
		client: openai.NewClient(clientOpts...),
		cfg:    cfg,
	}
}

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string {
	return g.cfg.Model
}

func (g *OpenAIGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return "", fmt.Errorf("%w: no API key for provider %q", ErrUnavailable, g.cfg.Provider)
	}
	if strings.TrimSpace(g.cfg.Model) == "" {
		return "", fmt.Errorf("%w: no model configured", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.cfg.SystemPrompt),
			openai.UserMessage(prompt),
		},
		Model:       g.cfg.Model,
		Temperature: openai.Float(g.cfg.Temperature),
	}
	if g.cfg.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil && g.cfg.JSONMode && shouldFallbackJSONMode(err) {
		// Some gateways reject response_format; the reply is repaired anyway.
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{}
		resp, err = g.client.Chat.Completions.New(ctx, params)
	}
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func shouldFallbackJSONMode(err error) bool {
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg += " " + strings.ToLower(apiErr.Message)
	}
	if strings.TrimSpace(msg) == "" {
		return false
	}
	if strings.Contains(msg, "response_format") || strings.Contains(msg, "json_object") {
		return true
	}
	if strings.Contains(msg, "unsupported") && strings.Contains(msg, "json") {
		return true
	}
	return false
}
