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

// Package insight is the minsight command line: configuration, logging and
// the commands that wire the analysis packages together.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"media-insight/insight/catalog"
	"media-insight/insight/embedding"
	"media-insight/insight/inference"
	"media-insight/insight/platform/console"
)

const (
	exitOK                = 0
	exitUsage             = 2
	exitConfigMissing     = 10
	exitCapabilityMissing = 20
	exitAnalysisFailed    = 40
)

var version = "dev"

const rootLong = `minsight 分析视频的评论情感、内容画像和语义相关度。

数据来源:
  --catalog <dir> 指向保存 YouTube Data API 响应的目录:
    videos/<id>.json  comments/<id>.json  transcripts/<id>.txt|.srt|.vtt  playlists.json

可选环境变量:
  - MINSIGHT_CONFIG=<path>                配置文件（YAML）
  - MINSIGHT_LLM_PROVIDER=auto|openai|openrouter
  - MINSIGHT_OPENAI_API_KEY / OPENAI_API_KEY
  - MINSIGHT_OPENROUTER_API_KEY / OPENROUTER_API_KEY
  - MINSIGHT_LLM_MODEL=gpt-4.1-mini
  - MINSIGHT_EMBEDDING_PROVIDER=auto|openai|hash
  - MINSIGHT_CATALOG_DIR=<dir>
  - MINSIGHT_LOG_LEVEL=debug|info|warn|error
  - MINSIGHT_LOG_FORMAT=text|json

退出码:
  - 2: 参数错误（USAGE）
  - 10: 配置缺失或无效（CONFIG_MISSING）
  - 20: 文本生成服务不可用（CAPABILITY_UNAVAILABLE）
  - 40: 分析失败（ANALYSIS_FAILED）`

// exitError carries the process exit code for a failed command.
type exitError struct {
	Code int
	Msg  string
}

func (e *exitError) Error() string {
	return e.Msg
}

func fail(code int, format string, args ...any) error {
	return &exitError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// silentExit ends a command whose result is already printed.
type silentExit struct {
	code int
}

func (e *silentExit) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type errorJSONResult struct {
	OK       bool   `json:"ok"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time
	logger *slog.Logger

	// newGenerator builds the text generator for a resolved configuration.
	newGenerator func(inference.OpenAIConfig) inference.TextGenerator
	// sleep replaces the retry wait when set.
	sleep inference.Sleeper

	configPath string
	flags      overrides
	jsonOut    bool
}

func newApp(stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) *app {
	return &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		getenv: getenv,
		now:    time.Now,
		logger: newLogger(stderr, getenv),
		newGenerator: func(cfg inference.OpenAIConfig) inference.TextGenerator {
			return inference.NewOpenAIGenerator(cfg)
		},
	}
}

func Main(args []string) int {
	console.EnsureUTF8()

	a := newApp(os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	slog.SetDefault(a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(args) > 0 {
		args = args[1:]
	}
	return a.run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCommand()
	if len(args) == 0 {
		_ = root.Help()
		return exitUsage
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var se *silentExit
	if errors.As(err, &se) {
		return se.code
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		ee = &exitError{Code: exitUsage, Msg: err.Error()}
	}
	if a.jsonOut {
		printJSON(a.stdout, errorJSONResult{OK: false, ExitCode: ee.Code, Error: ee.Msg})
	} else {
		fmt.Fprintln(a.stderr, ee.Msg)
		if ee.Code == exitUsage {
			fmt.Fprintln(a.stderr, "使用 `minsight --help` 查看用法")
		}
	}
	return ee.Code
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "minsight",
		Short:         "视频评论与内容分析工具",
		Long:          rootLong,
		Version:       strings.TrimSpace(version),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate("minsight {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "配置文件路径（YAML）")
	pf.BoolVar(&a.jsonOut, "json", false, "输出 JSON 结果")
	pf.StringVar(&a.flags.Catalog, "catalog", "", "数据目录")
	pf.StringVar(&a.flags.Provider, "provider", "", "LLM provider: auto|openai|openrouter")
	pf.StringVar(&a.flags.Model, "model", "", "LLM 模型")
	pf.StringVar(&a.flags.BaseURL, "base-url", "", "LLM API 地址")
	pf.StringVar(&a.flags.APIKey, "api-key", "", "LLM API Key")
	pf.StringVar(&a.flags.Embedding, "embedding", "", "向量化方式: auto|openai|hash")

	root.AddCommand(
		a.analyzeCommand(),
		a.commentsCommand(),
		a.searchCommand(),
		a.segmentsCommand(),
		a.repairCommand(),
		a.playlistsCommand(),
		a.doctorCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printVersion(cmd.OutOrStdout())
			return nil
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "minsight %s\n", strings.TrimSpace(version))
}

func (a *app) config() (Config, error) {
	cfg, err := loadConfig(a.configPath, a.flags, a.getenv)
	if err != nil {
		return Config{}, fail(exitConfigMissing, "配置无效: %v", err)
	}
	a.logger.Debug("configuration loaded",
		"config", cfg.Path,
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"embedding", cfg.Embedding.Provider,
		"catalog", cfg.Catalog.Dir,
	)
	return cfg, nil
}

func (a *app) inferenceClient(cfg Config) (*inference.Client, error) {
	gcfg, err := cfg.generatorConfig()
	if err != nil {
		return nil, fail(exitConfigMissing, "%v", err)
	}
	opts := []inference.Option{
		inference.WithMaxAttempts(cfg.Retry.MaxAttempts),
		inference.WithInitialDelay(time.Duration(cfg.Retry.InitialDelay)),
		inference.WithLogger(a.logger),
	}
	if a.sleep != nil {
		opts = append(opts, inference.WithSleeper(a.sleep))
	}
	return inference.NewClient(a.newGenerator(gcfg), opts...), nil
}

func (a *app) catalog(cfg Config) (*catalog.Dir, error) {
	if strings.TrimSpace(cfg.Catalog.Dir) == "" {
		return nil, fail(exitConfigMissing, "未设置数据目录。可用 `--catalog` 或环境变量 `MINSIGHT_CATALOG_DIR`")
	}
	return catalog.NewDir(cfg.Catalog.Dir), nil
}

// embedder is created on first use so commands that never rank do not need
// embedding credentials.
func (a *app) embedder(cfg Config) *embedding.Handle {
	return embedding.NewHandle(func() (embedding.Embedder, error) {
		var base embedding.Embedder
		switch cfg.Embedding.Provider {
		case embeddingOpenAI:
			e, err := embedding.NewOpenAIEmbedder(cfg.embedderConfig())
			if err != nil {
				return nil, err
			}
			base = e
		default:
			base = embedding.NewHashEmbedder(cfg.Embedding.Dimension)
		}
		if cfg.Embedding.CacheSize == 0 {
			return base, nil
		}
		cached, err := embedding.Cached(base, cfg.Embedding.CacheSize)
		if err != nil {
			return nil, err
		}
		return cached, nil
	})
}

// classify maps an analysis error onto an exit code.
func classify(err error, what string) error {
	var ee *exitError
	switch {
	case errors.As(err, &ee):
		return ee
	case errors.Is(err, inference.ErrUnavailable):
		return fail(exitCapabilityMissing, "文本生成服务不可用: %v", err)
	case errors.Is(err, catalog.ErrNotFound):
		return fail(exitAnalysisFailed, "%s: 未找到数据: %v", what, err)
	default:
		return fail(exitAnalysisFailed, "%s失败: %v", what, err)
	}
}

func printJSON(w io.Writer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("JSON 序列化失败", "error", err)
		return
	}
	fmt.Fprintln(w, string(data))
}
