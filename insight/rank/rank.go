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

// Package rank orders videos and transcript segments by semantic
// similarity to a query.
package rank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"media-insight/insight/catalog"
	"media-insight/insight/embedding"
	"media-insight/insight/transcript"
)

const (
	// MaxResults bounds every ranking.
	MaxResults = 3
	// SegmentFloor is the lowest similarity a segment may have and still rank.
	SegmentFloor = 0.5

	embedBatchSize = 64
	defaultWorkers = 4
)

var errMissingPublishDate = errors.New("item has no valid publish date")

type Mode int

const (
	ModeItem Mode = iota
	ModeSegment
)

func (m Mode) String() string {
	if m == ModeSegment {
		return "segment"
	}
	return "item"
}

// Candidates holds the inputs for either mode; only the field matching the
// mode is read.
type Candidates struct {
	Items    []catalog.Item
	Segments []transcript.Segment
}

type Result struct {
	Rank       int                 `json:"rank"`
	Item       *catalog.Item       `json:"item,omitempty"`
	Segment    *transcript.Segment `json:"segment,omitempty"`
	Similarity float64             `json:"similarity"`
	Engagement float64             `json:"engagement_score,omitempty"`
	Score      float64             `json:"final_score"`
	// Segments holds the item's most relevant transcript segments.
	Segments []Result `json:"relevant_segments,omitempty"`
}

type Option func(*Ranker)

// WithClock sets the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWorkers bounds how many embedding batches are in flight at once.
func WithWorkers(n int) Option {
	return func(r *Ranker) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// Ranker holds no mutable state besides its embedder and may be shared.
type Ranker struct {
	embedder embedding.Embedder
	now      func() time.Time
	logger   *slog.Logger
	workers  int
}

func New(embedder embedding.Embedder, opts ...Option) *Ranker {
	r := &Ranker{
		embedder: embedder,
		now:      time.Now,
		logger:   slog.Default(),
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank dispatches to RankItems or RankSegments.
func (r *Ranker) Rank(ctx context.Context, query string, c Candidates, mode Mode) []Result {
	if mode == ModeSegment {
		return r.RankSegments(ctx, query, c.Segments)
	}
	return r.RankItems(ctx, query, c.Items)
}

// RankItems returns at most MaxResults items ordered by final score. Items
// that carry transcript segments get their relevant segments attached. Any
// failure yields an empty result.
func (r *Ranker) RankItems(ctx context.Context, query string, items []catalog.Item) []Result {
	results, err := r.rankItems(ctx, query, items)
	if err != nil {
		r.logger.Warn("rank items failed", "mode", ModeItem.String(), "candidates", len(items), "error", err)
		return []Result{}
	}
	return results
}

// RankSegments returns at most MaxResults segments whose similarity is at
// least SegmentFloor, most similar first. Any failure yields an empty result.
func (r *Ranker) RankSegments(ctx context.Context, query string, segments []transcript.Segment) []Result {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err == nil {
		var results []Result
		results, err = r.rankSegments(ctx, queryVec, segments)
		if err == nil {
			return results
		}
	}
	r.logger.Warn("rank segments failed", "mode", ModeSegment.String(), "candidates", len(segments), "error", err)
	return []Result{}
}

func (r *Ranker) rankItems(ctx context.Context, query string, items []catalog.Item) ([]Result, error) {
	if len(items) == 0 {
		return []Result{}, nil
	}
	for i := range items {
		if items[i].PublishedAt.IsZero() {
			return nil, fmt.Errorf("%w: %q", errMissingPublishDate, items[i].ID)
		}
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = itemText(item)
	}
	vecs, err := r.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	now := r.now()
	results := make([]Result, len(items))
	for i := range items {
		item := items[i]
		sim := Cosine(queryVec, vecs[i])
		eng := Engagement(item, now)
		results[i] = Result{
			Item:       &item,
			Similarity: sim,
			Engagement: eng,
			Score:      FinalScore(sim, eng),
		}
	}
	results = top(results)

	for i := range results {
		segs := results[i].Item.Segments
		if len(segs) == 0 {
			continue
		}
		rel, err := r.rankSegments(ctx, queryVec, segs)
		if err != nil {
			r.logger.Debug("relevant segments skipped", "item", results[i].Item.ID, "error", err)
			continue
		}
		results[i].Segments = rel
	}
	return results, nil
}

func (r *Ranker) rankSegments(ctx context.Context, queryVec []float32, segments []transcript.Segment) ([]Result, error) {
	if len(segments) == 0 {
		return []Result{}, nil
	}
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	vecs, err := r.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(segments))
	for i := range segments {
		sim := Cosine(queryVec, vecs[i])
		if sim < SegmentFloor {
			continue
		}
		seg := segments[i]
		results = append(results, Result{Segment: &seg, Similarity: sim, Score: sim})
	}
	return top(results), nil
}

// embedAll embeds texts in chunks of embedBatchSize, one EmbedBatch call per
// chunk, with up to r.workers chunks in flight. Vectors keep the input order.
func (r *Ranker) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		g.Go(func() error {
			chunk, err := r.embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("embed candidates %d-%d: %w", start, end-1, err)
			}
			if len(chunk) != end-start {
				return fmt.Errorf("embed candidates %d-%d: got %d vectors", start, end-1, len(chunk))
			}
			copy(vecs[start:end], chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vecs, nil
}

// top stable-sorts by score, keeps MaxResults and assigns 1-based ranks.
func top(results []Result) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

func itemText(item catalog.Item) string {
	return item.Title + " " + item.Description + " " + strings.Join(item.Tags, " ")
}
