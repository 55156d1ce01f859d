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

package insight

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"media-insight/insight/embedding"
	"media-insight/insight/inference"
	"media-insight/insight/sentiment"
)

const (
	defaultModelOpenAI       = "gpt-4.1-mini"
	defaultModelOpenRouter   = "openai/gpt-4.1-mini"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultLLMTimeout        = 90 * time.Second

	embeddingAuto   = "auto"
	embeddingOpenAI = "openai"
	embeddingHash   = "hash"
)

// Duration reads "3s"-style strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retry     RetryConfig     `yaml:"retry"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Report    ReportConfig    `yaml:"report"`

	// Path is the config file that was loaded, if any.
	Path string `yaml:"-"`
}

type LLMConfig struct {
	Provider string   `yaml:"provider"`
	Model    string   `yaml:"model"`
	BaseURL  string   `yaml:"base_url"`
	APIKey   string   `yaml:"api_key"`
	Timeout  Duration `yaml:"timeout"`
	JSONMode bool     `yaml:"json_mode"`
	Referer  string   `yaml:"referer"`
	Title    string   `yaml:"title"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Dimension int    `yaml:"dimension"`
	CacheSize int    `yaml:"cache_size"`
}

type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
}

type SentimentConfig struct {
	BatchSize int `yaml:"batch_size"`
	TopN      int `yaml:"top_n"`
	Workers   int `yaml:"workers"`
}

type CatalogConfig struct {
	Dir string `yaml:"dir"`
}

type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// overrides carries command-line flags; empty values leave lower layers alone.
type overrides struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	Embedding string
	Catalog   string
	ReportDir string
	Workers   int
}

func defaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "auto",
			Timeout:  Duration(defaultLLMTimeout),
			JSONMode: true,
		},
		Embedding: EmbeddingConfig{
			Provider:  embeddingAuto,
			Model:     embedding.DefaultOpenAIModel,
			CacheSize: embedding.DefaultCacheSize,
		},
		Retry: RetryConfig{
			MaxAttempts:  inference.DefaultMaxAttempts,
			InitialDelay: Duration(inference.DefaultInitialDelay),
		},
		Sentiment: SentimentConfig{
			BatchSize: sentiment.DefaultBatchSize,
			TopN:      sentiment.DefaultTopN,
			Workers:   1,
		},
	}
}

// loadConfig layers defaults, the YAML file, the environment and flags, in
// that order of increasing precedence.
func loadConfig(path string, flags overrides, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	path = firstNonEmpty(path, getenv("MINSIGHT_CONFIG"))
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("解析配置文件失败 %s: %w", path, err)
		}
		cfg.Path = path
	}

	var errs []error
	envInt := func(key string, target *int) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: 不是整数: %q", key, raw))
			return
		}
		*target = v
	}
	envDuration := func(key string, target *Duration) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: 不是有效时长: %q", key, raw))
			return
		}
		*target = Duration(v)
	}

	llm := &cfg.LLM
	llm.Provider = strings.ToLower(firstNonEmpty(flags.Provider, getenv("MINSIGHT_LLM_PROVIDER"), llm.Provider))
	if llm.Provider == "" || llm.Provider == "auto" {
		if firstNonEmpty(getenv("MINSIGHT_OPENROUTER_API_KEY"), getenv("OPENROUTER_API_KEY")) != "" {
			llm.Provider = inference.ProviderOpenRouter
		} else {
			llm.Provider = inference.ProviderOpenAI
		}
	}
	switch llm.Provider {
	case inference.ProviderOpenRouter:
		llm.APIKey = firstNonEmpty(flags.APIKey, getenv("MINSIGHT_OPENROUTER_API_KEY"), getenv("OPENROUTER_API_KEY"), llm.APIKey)
		llm.BaseURL = firstNonEmpty(flags.BaseURL, getenv("MINSIGHT_OPENROUTER_BASE_URL"), llm.BaseURL, defaultOpenRouterBaseURL)
		llm.Model = firstNonEmpty(flags.Model, getenv("MINSIGHT_LLM_MODEL"), llm.Model, defaultModelOpenRouter)
		if !strings.Contains(llm.Model, "/") {
			llm.Model = "openai/" + llm.Model
		}
		llm.Referer = firstNonEmpty(getenv("MINSIGHT_OPENROUTER_REFERER"), llm.Referer, "https://minsight.local")
		llm.Title = firstNonEmpty(getenv("MINSIGHT_OPENROUTER_TITLE"), llm.Title, "minsight")
	case inference.ProviderOpenAI:
		llm.APIKey = firstNonEmpty(flags.APIKey, getenv("MINSIGHT_OPENAI_API_KEY"), getenv("OPENAI_API_KEY"), llm.APIKey)
		llm.BaseURL = firstNonEmpty(flags.BaseURL, getenv("MINSIGHT_OPENAI_BASE_URL"), llm.BaseURL)
		llm.Model = firstNonEmpty(flags.Model, getenv("MINSIGHT_LLM_MODEL"), llm.Model, defaultModelOpenAI)
	default:
		errs = append(errs, fmt.Errorf("不支持的 provider: %s", llm.Provider))
	}
	envDuration("MINSIGHT_LLM_TIMEOUT", &llm.Timeout)

	emb := &cfg.Embedding
	emb.Provider = strings.ToLower(firstNonEmpty(flags.Embedding, getenv("MINSIGHT_EMBEDDING_PROVIDER"), emb.Provider))
	emb.Model = firstNonEmpty(getenv("MINSIGHT_EMBEDDING_MODEL"), emb.Model)
	emb.APIKey = firstNonEmpty(getenv("MINSIGHT_OPENAI_API_KEY"), getenv("OPENAI_API_KEY"), emb.APIKey)
	emb.BaseURL = firstNonEmpty(getenv("MINSIGHT_OPENAI_BASE_URL"), emb.BaseURL)
	if emb.APIKey == "" && llm.Provider == inference.ProviderOpenAI {
		emb.APIKey = llm.APIKey
	}
	if emb.Provider == embeddingAuto {
		if emb.APIKey != "" {
			emb.Provider = embeddingOpenAI
		} else {
			emb.Provider = embeddingHash
		}
	}

	envInt("MINSIGHT_EMBEDDING_DIMENSION", &emb.Dimension)

	envInt("MINSIGHT_RETRY_MAX_ATTEMPTS", &cfg.Retry.MaxAttempts)
	envDuration("MINSIGHT_RETRY_INITIAL_DELAY", &cfg.Retry.InitialDelay)
	envInt("MINSIGHT_SENTIMENT_WORKERS", &cfg.Sentiment.Workers)
	if flags.Workers > 0 {
		cfg.Sentiment.Workers = flags.Workers
	}

	cfg.Catalog.Dir = firstNonEmpty(flags.Catalog, getenv("MINSIGHT_CATALOG_DIR"), cfg.Catalog.Dir)
	cfg.Report.Dir = firstNonEmpty(flags.ReportDir, getenv("MINSIGHT_REPORT_DIR"), cfg.Report.Dir)

	if err := errors.Join(append(errs, cfg.validate())...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate lists every invalid field at once.
func (c Config) validate() error {
	var errs []error
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout 必须大于 0"))
	}
	switch c.Embedding.Provider {
	case embeddingOpenAI, embeddingHash:
	default:
		errs = append(errs, fmt.Errorf("embedding.provider 仅支持 openai|hash|auto: %s", c.Embedding.Provider))
	}
	if c.Embedding.Dimension < 0 {
		errs = append(errs, errors.New("embedding.dimension 不能为负数"))
	}
	if c.Embedding.CacheSize < 0 {
		errs = append(errs, errors.New("embedding.cache_size 不能为负数"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts 必须至少为 1"))
	}
	if c.Retry.InitialDelay < 0 {
		errs = append(errs, errors.New("retry.initial_delay 不能为负数"))
	}
	if c.Sentiment.BatchSize < 1 {
		errs = append(errs, errors.New("sentiment.batch_size 必须至少为 1"))
	}
	if c.Sentiment.TopN < 1 {
		errs = append(errs, errors.New("sentiment.top_n 必须至少为 1"))
	}
	if c.Sentiment.Workers < 1 {
		errs = append(errs, errors.New("sentiment.workers 必须至少为 1"))
	}
	return errors.Join(errs...)
}

// embedderConfig returns the embeddings API settings. A zero dimension keeps
// the model's native vector size.
func (c Config) embedderConfig() embedding.OpenAIConfig {
	return embedding.OpenAIConfig{
		APIKey:     c.Embedding.APIKey,
		BaseURL:    c.Embedding.BaseURL,
		Model:      c.Embedding.Model,
		Dimensions: c.Embedding.Dimension,
	}
}

// generatorConfig returns the chat completion settings, or an error naming
// the variables to set when no key is configured.
func (c Config) generatorConfig() (inference.OpenAIConfig, error) {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		switch c.LLM.Provider {
		case inference.ProviderOpenRouter:
			return inference.OpenAIConfig{}, errors.New("未设置 OpenRouter API Key。可用 `--api-key` 或环境变量 `MINSIGHT_OPENROUTER_API_KEY` / `OPENROUTER_API_KEY`")
		default:
			return inference.OpenAIConfig{}, errors.New("未设置 OpenAI API Key。可用 `--api-key` 或环境变量 `MINSIGHT_OPENAI_API_KEY` / `OPENAI_API_KEY`")
		}
	}
	return inference.OpenAIConfig{
		Provider: c.LLM.Provider,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Model:    c.LLM.Model,
		Referer:  c.LLM.Referer,
		Title:    c.LLM.Title,
		JSONMode: c.LLM.JSONMode,
		Timeout:  time.Duration(c.LLM.Timeout),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
