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
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"media-insight/insight/catalog"
	"media-insight/insight/compare"
	"media-insight/insight/content"
	"media-insight/insight/sentiment"
)

const highlightsPerBucket = 3

type sentimentSummary struct {
	Counts          sentiment.Counts    `json:"counts"`
	PositivePercent float64             `json:"positive_percentage"`
	NegativePercent float64             `json:"negative_percentage"`
	NetSentiment    float64             `json:"net_sentiment"`
	Batches         int                 `json:"batches"`
	Dropped         int                 `json:"dropped"`
	TopPositive     []sentiment.Verdict `json:"top_positive"`
	TopNegative     []sentiment.Verdict `json:"top_negative"`
}

type videoAnalysis struct {
	Video      catalog.Item     `json:"video"`
	Profile    content.Profile  `json:"profile"`
	Sentiment  sentimentSummary `json:"sentiment"`
	Engagement float64          `json:"engagement_rate"`
}

type comparison struct {
	DomainCompatible bool                     `json:"domain_compatible"`
	Mismatched       []compare.Mismatch       `json:"mismatched,omitempty"`
	Ranking          []compare.Recommendation `json:"ranking,omitempty"`
	Recommended      string                   `json:"recommended_video_id,omitempty"`
}

type analysisReport struct {
	RunID       string          `json:"run_id,omitempty"`
	GeneratedAt string          `json:"generated_at"`
	Videos      []videoAnalysis `json:"videos"`
	Comparison  *comparison     `json:"comparison,omitempty"`
}

type analyzeJSONResult struct {
	OK         bool   `json:"ok"`
	ExitCode   int    `json:"exit_code"`
	Error      string `json:"error,omitempty"`
	ReportPath string `json:"report_path,omitempty"`
	analysisReport
}

type commentsJSONResult struct {
	OK        bool                `json:"ok"`
	ExitCode  int                 `json:"exit_code"`
	VideoID   string              `json:"video_id"`
	Summary   sentimentSummary    `json:"summary"`
	Verdicts  []sentiment.Verdict `json:"verdicts"`
	Generated string              `json:"generated_at"`
}

func (a *app) analyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url|id>...",
		Short: "分析视频内容与评论情感（两个及以上视频时给出对比推荐）",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnalyze(cmd.Context(), args)
		},
	}
	cmd.Flags().StringVar(&a.flags.ReportDir, "out-dir", "", "写入报告目录（<dir>/.minsight/reports/<run-id>/report.json）")
	cmd.Flags().IntVar(&a.flags.Workers, "workers", 0, "并发分析的评论批次数")
	return cmd
}

func (a *app) commentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments <url|id>",
		Short: "分析单个视频的评论情感",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runComments(cmd.Context(), args[0])
		},
	}
	cmd.Flags().IntVar(&a.flags.Workers, "workers", 0, "并发分析的评论批次数")
	return cmd
}

func (a *app) runAnalyze(ctx context.Context, refs []string) error {
	ids, err := dedupeVideoIDs(refs)
	if err != nil {
		return fail(exitUsage, "%v", err)
	}
	cfg, err := a.config()
	if err != nil {
		return err
	}
	cat, err := a.catalog(cfg)
	if err != nil {
		return err
	}
	client, err := a.inferenceClient(cfg)
	if err != nil {
		return err
	}
	analyzer := content.NewAnalyzer(client, a.logger)
	agg := a.aggregator(cfg, client)

	report := analysisReport{GeneratedAt: a.now().UTC().Format(time.RFC3339)}
	for _, id := range ids {
		item, err := cat.Video(ctx, id)
		if err != nil {
			return classify(err, "读取视频 "+id)
		}
		a.logger.Info("analyzing video", "video_id", id, "title", item.Title)

		profile, err := analyzer.Profile(ctx, item.Title, item.Description)
		if err != nil {
			return classify(err, "内容分析")
		}
		summary, _, err := a.commentSentiment(ctx, cat, agg, id)
		if err != nil {
			return err
		}
		report.Videos = append(report.Videos, videoAnalysis{
			Video:      item,
			Profile:    profile,
			Sentiment:  summary,
			Engagement: compare.EngagementPercent(item),
		})
	}
	if len(report.Videos) >= 2 {
		report.Comparison = compareVideos(report.Videos)
	}

	result := analyzeJSONResult{OK: true, ExitCode: exitOK, analysisReport: report}
	if dir := strings.TrimSpace(cfg.Report.Dir); dir != "" {
		bundle, err := createReportBundle(dir, a.now())
		if err != nil {
			return fail(exitAnalysisFailed, "创建报告目录失败: %v", err)
		}
		report.RunID = bundle.RunID
		if err := writeJSONFile(bundle.Path, report); err != nil {
			return fail(exitAnalysisFailed, "写入报告失败: %v", err)
		}
		result.analysisReport = report
		result.ReportPath = bundle.Path
	}

	if a.jsonOut {
		printJSON(a.stdout, result)
		return nil
	}
	printAnalysisHuman(a.stdout, result)
	return nil
}

func (a *app) runComments(ctx context.Context, ref string) error {
	id, err := resolveVideoID(ref)
	if err != nil {
		return fail(exitUsage, "%v", err)
	}
	cfg, err := a.config()
	if err != nil {
		return err
	}
	cat, err := a.catalog(cfg)
	if err != nil {
		return err
	}
	client, err := a.inferenceClient(cfg)
	if err != nil {
		return err
	}

	summary, rep, err := a.commentSentiment(ctx, cat, a.aggregator(cfg, client), id)
	if err != nil {
		return err
	}
	if a.jsonOut {
		printJSON(a.stdout, commentsJSONResult{
			OK:        true,
			ExitCode:  exitOK,
			VideoID:   id,
			Summary:   summary,
			Verdicts:  rep.Verdicts,
			Generated: a.now().UTC().Format(time.RFC3339),
		})
		return nil
	}
	fmt.Fprintf(a.stdout, "video_id: %s\n", id)
	printSentimentHuman(a.stdout, summary)
	return nil
}

func (a *app) aggregator(cfg Config, inv sentiment.Invoker) *sentiment.Aggregator {
	return sentiment.NewAggregator(inv,
		sentiment.WithBatchSize(cfg.Sentiment.BatchSize),
		sentiment.WithTopN(cfg.Sentiment.TopN),
		sentiment.WithWorkers(cfg.Sentiment.Workers),
		sentiment.WithLogger(a.logger),
	)
}

// commentSentiment classifies a video's comments. A video without saved
// comments gets an empty summary.
func (a *app) commentSentiment(ctx context.Context, cat catalog.Catalog, agg *sentiment.Aggregator, id string) (sentimentSummary, sentiment.Report, error) {
	comments, err := cat.Comments(ctx, id, 0)
	if err != nil && !isNotFound(err) {
		return sentimentSummary{}, sentiment.Report{}, classify(err, "读取评论")
	}
	if err != nil {
		a.logger.Warn("no comments saved for video", "video_id", id)
	}
	rep, err := agg.Analyze(ctx, comments)
	if err != nil {
		return sentimentSummary{}, sentiment.Report{}, classify(err, "评论情感分析")
	}
	return summarizeSentiment(rep), rep, nil
}

func summarizeSentiment(rep sentiment.Report) sentimentSummary {
	pos, neg := rep.Percentages()
	pos, neg = round2(pos), round2(neg)
	return sentimentSummary{
		Counts:          rep.Counts,
		PositivePercent: pos,
		NegativePercent: neg,
		NetSentiment:    round2(pos - neg),
		Batches:         rep.Batches,
		Dropped:         rep.Dropped,
		TopPositive:     nonNilVerdicts(rep.Highlights(sentiment.Positive, highlightsPerBucket)),
		TopNegative:     nonNilVerdicts(rep.Highlights(sentiment.Negative, highlightsPerBucket)),
	}
}

// compareVideos recommends a video only when all of them share a subject
// area.
func compareVideos(videos []videoAnalysis) *comparison {
	subjects := make([]string, len(videos))
	entries := make([]compare.Entry, len(videos))
	for i, v := range videos {
		subjects[i] = v.Profile.Subject
		entries[i] = compare.Entry{Item: v.Video, NetSentiment: v.Sentiment.NetSentiment}
	}
	ok, mismatched := compare.DomainCompatible(subjects)
	out := &comparison{DomainCompatible: ok, Mismatched: mismatched}
	if !ok {
		return out
	}
	out.Ranking = compare.Recommend(entries)
	if len(out.Ranking) > 0 {
		out.Recommended = out.Ranking[0].Item.ID
	}
	return out
}

func printAnalysisHuman(w io.Writer, r analyzeJSONResult) {
	for _, v := range r.Videos {
		p := v.Profile
		fmt.Fprintf(w, "video: %s %s\n", v.Video.ID, v.Video.Title)
		fmt.Fprintf(w, "subject: %s / %s\n", p.Subject, p.Subtopic)
		fmt.Fprintf(w, "difficulty: %s (audience: %s)\n", p.DifficultyLevel, p.TargetAudience)
		if len(p.Prerequisites) > 0 {
			fmt.Fprintf(w, "prerequisites: %s\n", strings.Join(p.Prerequisites, ", "))
		}
		if len(p.Concepts) > 0 {
			fmt.Fprintf(w, "concepts: %s\n", strings.Join(p.Concepts, ", "))
		}
		fmt.Fprintf(w, "engagement: %.2f%%\n", v.Engagement)
		printSentimentHuman(w, v.Sentiment)
		fmt.Fprintln(w)
	}
	if c := r.Comparison; c != nil {
		if !c.DomainCompatible {
			fmt.Fprintln(w, "comparison: 视频不属于同一领域，未给出推荐")
			for _, m := range c.Mismatched {
				fmt.Fprintf(w, "  - #%d %s (main: %s)\n", m.Index+1, m.Subject, m.MainSubject)
			}
		} else {
			fmt.Fprintln(w, "comparison:")
			for i, rec := range c.Ranking {
				fmt.Fprintf(w, "  %d. %s total=%.2f engagement=%.2f sentiment=%.2f\n",
					i+1, rec.Item.ID, rec.Total, rec.EngagementSub, rec.SentimentSub)
			}
			fmt.Fprintf(w, "recommended: %s\n", c.Recommended)
		}
	}
	if r.ReportPath != "" {
		fmt.Fprintf(w, "report: %s\n", r.ReportPath)
	}
}

func printSentimentHuman(w io.Writer, s sentimentSummary) {
	fmt.Fprintf(w, "comments: positive=%d (%.2f%%) negative=%d (%.2f%%) net=%.2f\n",
		s.Counts.Positive, s.PositivePercent, s.Counts.Negative, s.NegativePercent, s.NetSentiment)
	if s.Dropped > 0 {
		fmt.Fprintf(w, "comments_without_verdict: %d\n", s.Dropped)
	}
	for _, v := range s.TopPositive {
		fmt.Fprintf(w, "  + [%d] %s\n", v.LikeCount, shortText(v.Text, 80))
	}
	for _, v := range s.TopNegative {
		fmt.Fprintf(w, "  - [%d] %s\n", v.LikeCount, shortText(v.Text, 80))
	}
}

func nonNilVerdicts(v []sentiment.Verdict) []sentiment.Verdict {
	if v == nil {
		return []sentiment.Verdict{}
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func shortText(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
