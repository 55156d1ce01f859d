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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"media-insight/insight/catalog"
	"media-insight/insight/embedding"
	"media-insight/insight/rank"
	"media-insight/insight/transcript"
)

type searchJSONResult struct {
	OK       bool          `json:"ok"`
	ExitCode int           `json:"exit_code"`
	Query    string        `json:"query"`
	Mode     string        `json:"mode"`
	VideoID  string        `json:"video_id,omitempty"`
	Model    string        `json:"embedding_model"`
	Results  []rank.Result `json:"results"`
}

func (a *app) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "按语义相关度、互动和时效对目录中的视频排序",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func (a *app) segmentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "segments <url|id> <query>",
		Short: "在单个视频的字幕中查找与问题最相关的片段",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSegments(cmd.Context(), args[0], strings.Join(args[1:], " "))
		},
	}
}

func (a *app) runSearch(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fail(exitUsage, "缺少查询内容。用法: minsight search <query>")
	}
	cfg, err := a.config()
	if err != nil {
		return err
	}
	cat, err := a.catalog(cfg)
	if err != nil {
		return err
	}
	handle := a.embedder(cfg)
	model, err := handleModel(handle)
	if err != nil {
		return err
	}

	items, err := cat.Videos(ctx)
	if err != nil {
		return classify(err, "读取视频列表")
	}
	for i := range items {
		segments, err := cat.Transcript(ctx, items[i].ID)
		switch {
		case err == nil:
			items[i].Segments = segments
		case isNotFound(err):
		default:
			a.logger.Warn("transcript unreadable", "video_id", items[i].ID, "error", err)
		}
	}

	ranker := rank.New(handle, rank.WithLogger(a.logger), rank.WithClock(a.now))
	results := ranker.RankItems(ctx, query, items)
	a.logEmbeddingCache(handle)
	return a.printRanking(searchJSONResult{
		OK:       true,
		ExitCode: exitOK,
		Query:    query,
		Mode:     rank.ModeItem.String(),
		Model:    model,
		Results:  results,
	})
}

func (a *app) runSegments(ctx context.Context, ref, query string) error {
	id, err := resolveVideoID(ref)
	if err != nil {
		return fail(exitUsage, "%v", err)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return fail(exitUsage, "缺少查询内容。用法: minsight segments <url|id> <query>")
	}
	cfg, err := a.config()
	if err != nil {
		return err
	}
	cat, err := a.catalog(cfg)
	if err != nil {
		return err
	}
	handle := a.embedder(cfg)
	model, err := handleModel(handle)
	if err != nil {
		return err
	}

	segments, err := cat.Transcript(ctx, id)
	if err != nil {
		return classify(err, "读取字幕")
	}
	ranker := rank.New(handle, rank.WithLogger(a.logger), rank.WithClock(a.now))
	results := ranker.RankSegments(ctx, query, segments)
	a.logEmbeddingCache(handle)
	return a.printRanking(searchJSONResult{
		OK:       true,
		ExitCode: exitOK,
		Query:    query,
		Mode:     rank.ModeSegment.String(),
		VideoID:  id,
		Model:    model,
		Results:  results,
	})
}

// handleModel initializes the embedder up front so a misconfigured provider
// fails the command instead of yielding an empty ranking.
func handleModel(h *embedding.Handle) (string, error) {
	e, err := h.Get()
	if err != nil {
		return "", fail(exitCapabilityMissing, "向量化服务不可用: %v", err)
	}
	return e.Model(), nil
}

func (a *app) logEmbeddingCache(h *embedding.Handle) {
	e, err := h.Get()
	if err != nil {
		return
	}
	if c, ok := e.(*embedding.CachedEmbedder); ok {
		a.logger.Debug("embedding cache", "model", c.Model(), "entries", c.Len())
	}
}

func (a *app) printRanking(r searchJSONResult) error {
	if a.jsonOut {
		printJSON(a.stdout, r)
		return nil
	}
	if len(r.Results) == 0 {
		fmt.Fprintln(a.stdout, "没有找到相关结果")
		return nil
	}
	printRankingHuman(a.stdout, r.Results)
	return nil
}

func printRankingHuman(w io.Writer, results []rank.Result) {
	for _, res := range results {
		if res.Item != nil {
			fmt.Fprintf(w, "%d. %s (%s) score=%.3f similarity=%.3f engagement=%.3f\n",
				res.Rank, res.Item.Title, res.Item.ID, res.Score, res.Similarity, res.Engagement)
			for _, seg := range res.Segments {
				fmt.Fprintf(w, "   %s (%.3f)\n", segmentLine(*seg.Segment, 80), seg.Similarity)
			}
			continue
		}
		if res.Segment != nil {
			fmt.Fprintf(w, "%d. %s (%.3f)\n", res.Rank, segmentLine(*res.Segment, 100), res.Similarity)
		}
	}
}

func segmentLine(seg transcript.Segment, maxRunes int) string {
	seg.Text = shortText(seg.Text, maxRunes)
	return transcript.Format([]transcript.Segment{seg})
}

func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrNotFound)
}
