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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"media-insight/insight/embedding"
)

type doctorCheck struct {
	ID      string         `json:"id"`
	Level   string         `json:"level"` // pass|warn|fail
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type doctorSummary struct {
	Total int `json:"total"`
	Pass  int `json:"pass"`
	Warn  int `json:"warn"`
	Fail  int `json:"fail"`
}

type doctorJSONResult struct {
	OK       bool          `json:"ok"`
	ExitCode int           `json:"exit_code"`
	Error    string        `json:"error,omitempty"`
	Config   string        `json:"config,omitempty"`
	Summary  doctorSummary `json:"summary"`
	Checks   []doctorCheck `json:"checks"`
}

func (a *app) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "检查配置、密钥和数据目录",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDoctor()
		},
	}
}

func (a *app) runDoctor() error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	checks := runDoctorChecks(cfg)
	summary := summarizeDoctorChecks(checks)
	ok := summary.Fail == 0
	exitCode := exitOK
	if !ok {
		exitCode = exitConfigMissing
	}

	if a.jsonOut {
		printJSON(a.stdout, doctorJSONResult{
			OK:       ok,
			ExitCode: exitCode,
			Config:   cfg.Path,
			Summary:  summary,
			Checks:   checks,
		})
	} else {
		status := "PASS"
		if !ok {
			status = "FAIL"
		}
		if cfg.Path != "" {
			fmt.Fprintf(a.stdout, "config: %s\n", cfg.Path)
		}
		fmt.Fprintf(a.stdout, "doctor: %s (pass=%d warn=%d fail=%d)\n", status, summary.Pass, summary.Warn, summary.Fail)
		for _, c := range checks {
			fmt.Fprintf(a.stdout, "[%s] %s: %s\n", strings.ToUpper(c.Level), c.ID, c.Message)
		}
	}

	if !ok {
		// The result is already printed; only the exit code remains.
		return &silentExit{code: exitCode}
	}
	return nil
}

func runDoctorChecks(cfg Config) []doctorCheck {
	checks := make([]doctorCheck, 0, 8)
	checks = append(checks, doctorCheckLLM(cfg))
	checks = append(checks, doctorCheckEmbedding(cfg))
	checks = append(checks, doctorCheckRetry(cfg))
	checks = append(checks, doctorCheckCatalog(cfg)...)
	checks = append(checks, doctorCheckReportDir(cfg))
	return checks
}

func doctorCheckLLM(cfg Config) doctorCheck {
	details := map[string]any{"provider": cfg.LLM.Provider, "model": cfg.LLM.Model}
	if cfg.LLM.BaseURL != "" {
		details["base_url"] = cfg.LLM.BaseURL
	}
	if _, err := cfg.generatorConfig(); err != nil {
		return doctorCheck{ID: "llm", Level: "fail", Message: err.Error(), Details: details}
	}
	return doctorCheck{
		ID:      "llm",
		Level:   "pass",
		Message: fmt.Sprintf("已配置 %s（模型 %s）", cfg.LLM.Provider, cfg.LLM.Model),
		Details: details,
	}
}

func doctorCheckEmbedding(cfg Config) doctorCheck {
	details := map[string]any{"provider": cfg.Embedding.Provider, "cache_size": cfg.Embedding.CacheSize}
	switch cfg.Embedding.Provider {
	case embeddingOpenAI:
		details["model"] = cfg.Embedding.Model
		if cfg.Embedding.Dimension > 0 {
			details["dimensions"] = cfg.Embedding.Dimension
		}
		if strings.TrimSpace(cfg.Embedding.APIKey) == "" {
			return doctorCheck{
				ID:      "embedding",
				Level:   "fail",
				Message: "embedding.provider=openai 但未设置 OpenAI API Key（MINSIGHT_OPENAI_API_KEY / OPENAI_API_KEY）",
				Details: details,
			}
		}
		return doctorCheck{ID: "embedding", Level: "pass", Message: fmt.Sprintf("使用 OpenAI 向量（%s）", cfg.Embedding.Model), Details: details}
	default:
		details["model"] = embedding.NewHashEmbedder(cfg.Embedding.Dimension).Model()
		return doctorCheck{
			ID:      "embedding",
			Level:   "warn",
			Message: "使用离线哈希向量，语义排序仅基于词面重合",
			Details: details,
		}
	}
}

func doctorCheckRetry(cfg Config) doctorCheck {
	details := map[string]any{
		"max_attempts":     cfg.Retry.MaxAttempts,
		"initial_delay_ms": time.Duration(cfg.Retry.InitialDelay).Milliseconds(),
	}
	if cfg.Retry.MaxAttempts == 1 {
		return doctorCheck{ID: "retry", Level: "warn", Message: "retry.max_attempts=1，模型输出异常时不会重试", Details: details}
	}
	return doctorCheck{
		ID:      "retry",
		Level:   "pass",
		Message: fmt.Sprintf("最多尝试 %d 次，首次等待 %s", cfg.Retry.MaxAttempts, time.Duration(cfg.Retry.InitialDelay)),
		Details: details,
	}
}

func doctorCheckCatalog(cfg Config) []doctorCheck {
	dir := strings.TrimSpace(cfg.Catalog.Dir)
	if dir == "" {
		return []doctorCheck{{
			ID:      "catalog",
			Level:   "fail",
			Message: "未设置数据目录。可用 `--catalog` 或环境变量 `MINSIGHT_CATALOG_DIR`",
		}}
	}
	if !dirExists(dir) {
		return []doctorCheck{{
			ID:      "catalog",
			Level:   "fail",
			Message: fmt.Sprintf("数据目录不存在: %s", dir),
		}}
	}

	counts := map[string]any{}
	for _, sub := range []string{"videos", "comments", "transcripts"} {
		counts[sub] = countFiles(filepath.Join(dir, sub))
	}
	checks := []doctorCheck{}
	if counts["videos"].(int) == 0 {
		checks = append(checks, doctorCheck{
			ID:      "catalog",
			Level:   "fail",
			Message: fmt.Sprintf("%s 下没有 videos/<id>.json", dir),
			Details: counts,
		})
	} else {
		checks = append(checks, doctorCheck{
			ID:      "catalog",
			Level:   "pass",
			Message: fmt.Sprintf("视频 %d 个，评论 %d 份，字幕 %d 份", counts["videos"], counts["comments"], counts["transcripts"]),
			Details: counts,
		})
	}
	if fileExists(filepath.Join(dir, "playlists.json")) {
		checks = append(checks, doctorCheck{ID: "playlists", Level: "pass", Message: "找到 playlists.json"})
	} else {
		checks = append(checks, doctorCheck{ID: "playlists", Level: "warn", Message: "没有 playlists.json，`minsight playlists` 不可用"})
	}
	return checks
}

func doctorCheckReportDir(cfg Config) doctorCheck {
	dir := strings.TrimSpace(cfg.Report.Dir)
	if dir == "" {
		return doctorCheck{ID: "report_dir", Level: "pass", Message: "未设置报告目录，分析结果只输出到终端"}
	}
	if !dirExists(dir) {
		return doctorCheck{ID: "report_dir", Level: "warn", Message: fmt.Sprintf("报告目录不存在，将在首次写入时创建: %s", dir)}
	}
	return doctorCheck{ID: "report_dir", Level: "pass", Message: fmt.Sprintf("报告写入 %s", filepath.Join(dir, ".minsight", "reports"))}
}

func summarizeDoctorChecks(checks []doctorCheck) doctorSummary {
	s := doctorSummary{Total: len(checks)}
	for _, c := range checks {
		switch c.Level {
		case "pass":
			s.Pass++
		case "warn":
			s.Warn++
		case "fail":
			s.Fail++
		}
	}
	return s
}

func countFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}

func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
