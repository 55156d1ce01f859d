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

// Package sentiment classifies the most liked comments of a video in
// batches and tallies the verdicts.
package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"media-insight/insight/catalog"
	"media-insight/insight/inference"
	"media-insight/insight/record"
)

const (
	DefaultBatchSize = 20
	DefaultTopN      = 100

	Positive = "positive"
	Negative = "negative"
)

// Invoker is the structured-output call each batch goes through.
// *inference.Client satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (record.Record, error)
}

// Verdict is the classification of one comment.
type Verdict struct {
	Text       string   `json:"text"`
	Sentiment  string   `json:"sentiment"`
	Confidence string   `json:"confidence"`
	KeyPhrases []string `json:"key_phrases"`
	LikeCount  int64    `json:"likes"`
}

type Counts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

func (c Counts) Total() int {
	return c.Positive + c.Negative
}

// Report is the aggregate over all batches. Verdicts keep batch order and,
// within a batch, comment order. Counts always match Verdicts.
type Report struct {
	Verdicts []Verdict `json:"verdicts"`
	Counts   Counts    `json:"counts"`
	Batches  int       `json:"batches"`
	// Dropped counts comments that got no verdict because a batch reply was
	// unusable or shorter than the batch.
	Dropped int `json:"dropped"`
}

type Option func(*Aggregator)

func WithBatchSize(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.batchSize = n
		}
	}
}

func WithTopN(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.topN = n
		}
	}
}

// WithWorkers runs up to n batches concurrently. Results are merged in batch
// order regardless.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

type Aggregator struct {
	invoker   Invoker
	batchSize int
	topN      int
	workers   int
	logger    *slog.Logger
}

func NewAggregator(invoker Invoker, opts ...Option) *Aggregator {
	a := &Aggregator{
		invoker:   invoker,
		batchSize: DefaultBatchSize,
		topN:      DefaultTopN,
		workers:   1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type batchResult struct {
	verdicts []Verdict
	dropped  int
}

// Analyze classifies the topN most liked comments. The only error returned
// is one the invoker could not absorb (see inference.ErrUnavailable) or a
// cancelled context.
func (a *Aggregator) Analyze(ctx context.Context, comments []catalog.Comment) (Report, error) {
	selected := TopByLikes(comments, a.topN)
	batches := split(selected, a.batchSize)
	results := make([]batchResult, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, batch := range batches {
		g.Go(func() error {
			res, err := a.analyzeBatch(gctx, i, batch)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Verdicts: []Verdict{}, Batches: len(batches)}
	for _, res := range results {
		report.Dropped += res.dropped
		for _, v := range res.verdicts {
			report.Verdicts = append(report.Verdicts, v)
			if v.Sentiment == Positive {
				report.Counts.Positive++
			} else {
				report.Counts.Negative++
			}
		}
	}
	a.logger.Info("sentiment analyzed",
		"comments", len(comments),
		"selected", len(selected),
		"batches", report.Batches,
		"positive", report.Counts.Positive,
		"negative", report.Counts.Negative,
		"dropped", report.Dropped,
	)
	return report, nil
}

func (a *Aggregator) analyzeBatch(ctx context.Context, idx int, batch []catalog.Comment) (batchResult, error) {
	rec, err := a.invoker.Invoke(ctx, BatchPrompt(batch))
	if err != nil {
		return batchResult{}, fmt.Errorf("sentiment batch %d: %w", idx, err)
	}
	if inference.IsSentinel(rec) {
		a.logger.Warn("sentiment batch exhausted", "batch", idx, "size", len(batch),
			"failure_mode", string(inference.SentinelFailure(rec)))
		return batchResult{dropped: len(batch)}, nil
	}

	replies := rec.List("results")
	n := min(len(batch), len(replies))
	if len(replies) != len(batch) {
		a.logger.Warn("sentiment batch misaligned", "batch", idx, "comments", len(batch), "results", len(replies))
	}
	verdicts := make([]Verdict, 0, n)
	for i := 0; i < n; i++ {
		reply, _ := record.AsRecord(replies[i])
		verdicts = append(verdicts, Verdict{
			Text:       batch[i].Text,
			Sentiment:  normalizeSentiment(reply.String("sentiment", "")),
			Confidence: normalizeConfidence(reply.String("confidence", "")),
			KeyPhrases: reply.Strings("key_phrases"),
			LikeCount:  batch[i].LikeCount,
		})
	}
	return batchResult{verdicts: verdicts, dropped: len(batch) - n}, nil
}

// TopByLikes returns the n most liked comments, most liked first. Ties keep
// their input order.
func TopByLikes(comments []catalog.Comment, n int) []catalog.Comment {
	sorted := append([]catalog.Comment(nil), comments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LikeCount > sorted[j].LikeCount
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func split(comments []catalog.Comment, size int) [][]catalog.Comment {
	var out [][]catalog.Comment
	for start := 0; start < len(comments); start += size {
		end := min(start+size, len(comments))
		out = append(out, comments[start:end])
	}
	return out
}

// normalizeSentiment maps anything but the two exact labels to negative.
func normalizeSentiment(v string) string {
	if v == Positive {
		return Positive
	}
	return Negative
}

func normalizeConfidence(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "high":
		return "high"
	case "medium":
		return "medium"
	default:
		return "low"
	}
}
