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

package rank

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-insight/insight/catalog"
	"media-insight/insight/transcript"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mapEmbedder returns fixed vectors per text; unknown text is the zero vector.
type mapEmbedder struct {
	vecs map[string][]float32
	err  error
}

func (m *mapEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vecs[text]; ok {
		return v, nil
	}
	return []float32{0, 0}, nil
}

func (m *mapEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mapEmbedder) Model() string { return "map" }

// countingEmbedder records how the ranker calls its embedder.
type countingEmbedder struct {
	mapEmbedder
	single  atomic.Int32
	batches atomic.Int32
	texts   atomic.Int32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.single.Add(1)
	return c.mapEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches.Add(1)
	c.texts.Add(int32(len(texts)))
	return c.mapEmbedder.EmbedBatch(ctx, texts)
}

func newTestRanker(e *mapEmbedder) *Ranker {
	return New(e, WithClock(func() time.Time { return testNow }), WithLogger(testLogger()), WithWorkers(2))
}

func item(id, title string, views, likes int64, age time.Duration) catalog.Item {
	return catalog.Item{
		ID:          id,
		Title:       title,
		ViewCount:   views,
		LikeCount:   likes,
		PublishedAt: testNow.Add(-age),
	}
}

func TestRankItemsScoring(t *testing.T) {
	e := &mapEmbedder{vecs: map[string][]float32{
		"go":            {1, 0},
		"match  ":       {1, 0},
		"orthogonal  ":  {0, 1},
		"half way  tag": {1, 1},
	}}
	items := []catalog.Item{
		item("a", "orthogonal", 1000, 100, 0),
		item("b", "match", 1000, 100, 0),
		{ID: "c", Title: "half way", Tags: []string{"tag"}, ViewCount: 0, LikeCount: 0, PublishedAt: testNow.Add(-24 * time.Hour)},
	}

	results := newTestRanker(e).RankItems(context.Background(), "go", items)
	require.Len(t, results, 3)

	assert.Equal(t, "b", results[0].Item.ID)
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.4*0.1+0.6*2, results[0].Engagement, 1e-9)
	assert.InDelta(t, 0.5*1.0+0.5*1.24, results[0].Score, 1e-6)

	assert.Equal(t, "c", results[1].Item.ID)
	wantEng := 0.6 * 2 / (1 + math.Log(2))
	assert.InDelta(t, wantEng, results[1].Engagement, 1e-9)
	assert.InDelta(t, 0.5*(1/math.Sqrt2)+0.5*wantEng, results[1].Score, 1e-6)

	assert.Equal(t, "a", results[2].Item.ID)
	assert.InDelta(t, 0.0, results[2].Similarity, 1e-9)
	assert.Equal(t, 3, results[2].Rank)
}

func TestRankItemsBoundedAndStable(t *testing.T) {
	e := &mapEmbedder{}
	var items []catalog.Item
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		items = append(items, item(id, "same", 10, 1, 48*time.Hour))
	}

	results := newTestRanker(e).RankItems(context.Background(), "query", items)
	require.Len(t, results, MaxResults)
	for i, r := range results {
		assert.Equal(t, items[i].ID, r.Item.ID)
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRankItemsDegradesToEmpty(t *testing.T) {
	t.Run("missing publish date", func(t *testing.T) {
		items := []catalog.Item{item("a", "x", 1, 1, 0), {ID: "b", Title: "no date"}}
		results := newTestRanker(&mapEmbedder{}).RankItems(context.Background(), "q", items)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("embedding failure", func(t *testing.T) {
		e := &mapEmbedder{err: errors.New("quota exceeded")}
		results := newTestRanker(e).RankItems(context.Background(), "q", []catalog.Item{item("a", "x", 1, 1, 0)})
		assert.Empty(t, results)
	})

	t.Run("no candidates", func(t *testing.T) {
		assert.Empty(t, newTestRanker(&mapEmbedder{}).RankItems(context.Background(), "q", nil))
	})
}

func TestRankItemsAttachesSegments(t *testing.T) {
	e := &mapEmbedder{vecs: map[string][]float32{
		"q":         {1, 0},
		"on topic":  {1, 0},
		"off topic": {0, 1},
	}}
	it := item("a", "video", 100, 10, 0)
	it.Segments = []transcript.Segment{
		{Label: "00:00", Offset: 0, Text: "off topic"},
		{Label: "00:30", Offset: 30, Text: "on topic"},
	}

	results := newTestRanker(e).RankItems(context.Background(), "q", []catalog.Item{it})
	require.Len(t, results, 1)
	require.Len(t, results[0].Segments, 1)
	assert.Equal(t, "00:30", results[0].Segments[0].Segment.Label)
	assert.Equal(t, 1, results[0].Segments[0].Rank)
}

func TestRankSegments(t *testing.T) {
	vec := func(cos float64) []float32 {
		return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
	}
	e := &mapEmbedder{vecs: map[string][]float32{
		"query": {1, 0},
		"s90":   vec(0.9),
		"s40":   vec(0.4),
		"s60":   vec(0.6),
		"s70":   vec(0.7),
		"s95":   vec(0.95),
	}}
	segments := []transcript.Segment{
		{Label: "00:01", Offset: 1, Text: "s90"},
		{Label: "00:02", Offset: 2, Text: "s40"},
		{Label: "00:03", Offset: 3, Text: "s60"},
		{Label: "00:04", Offset: 4, Text: "s70"},
	}

	results := newTestRanker(e).RankSegments(context.Background(), "query", segments)
	require.Len(t, results, 3)
	assert.Equal(t, "s90", results[0].Segment.Text)
	assert.Equal(t, "s70", results[1].Segment.Text)
	assert.Equal(t, "s60", results[2].Segment.Text)
	assert.InDelta(t, 0.9, results[0].Similarity, 1e-5)
	assert.Equal(t, results[0].Similarity, results[0].Score)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		assert.GreaterOrEqual(t, r.Similarity, SegmentFloor)
		assert.Nil(t, r.Item)
	}

	// Dispatch through Rank picks the same path.
	viaRank := newTestRanker(e).Rank(context.Background(), "query", Candidates{Segments: segments}, ModeSegment)
	assert.Equal(t, results, viaRank)
}

func TestRankSegmentsAllBelowFloor(t *testing.T) {
	e := &mapEmbedder{vecs: map[string][]float32{"query": {1, 0}, "x": {0, 1}}}
	results := newTestRanker(e).RankSegments(context.Background(), "query", []transcript.Segment{{Text: "x"}})
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRankSegmentsEmbeddingFailure(t *testing.T) {
	e := &mapEmbedder{err: errors.New("down")}
	assert.Empty(t, newTestRanker(e).RankSegments(context.Background(), "q", []transcript.Segment{{Text: "x"}}))
}

func TestCosine(t *testing.T) {
	tests := map[string]struct {
		a, b []float32
		want float64
	}{
		"identical":       {[]float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		"opposite":        {[]float32{1, 0}, []float32{-1, 0}, -1},
		"orthogonal":      {[]float32{1, 0}, []float32{0, 1}, 0},
		"zero vector":     {[]float32{0, 0}, []float32{1, 1}, 0},
		"length mismatch": {[]float32{1}, []float32{1, 1}, 0},
		"empty":           {nil, nil, 0},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRecencyAndDays(t *testing.T) {
	assert.InDelta(t, 2.0, RecencyBoost(0), 1e-12)
	assert.InDelta(t, 2/(1+math.Log(11)), RecencyBoost(10), 1e-12)
	assert.InDelta(t, 2.0, RecencyBoost(-5), 1e-12)

	assert.Equal(t, 0, DaysSince(testNow.Add(time.Hour), testNow))
	assert.Equal(t, 0, DaysSince(testNow.Add(-23*time.Hour), testNow))
	assert.Equal(t, 3, DaysSince(testNow.Add(-75*time.Hour), testNow))
}

func TestEngagementZeroViews(t *testing.T) {
	it := item("a", "x", 0, 5, 0)
	assert.InDelta(t, 0.4*5+0.6*2, Engagement(it, testNow), 1e-9)
}

func TestRankItemsEmbedsCandidatesInBatches(t *testing.T) {
	e := &countingEmbedder{}
	var items []catalog.Item
	for i := range 5 {
		items = append(items, item(strconv.Itoa(i), "t"+strconv.Itoa(i), 100, 1, 0))
	}
	items[0].Segments = []transcript.Segment{{Text: "a"}, {Text: "b"}}

	r := New(e, WithClock(func() time.Time { return testNow }), WithLogger(testLogger()))
	results := r.RankItems(context.Background(), "q", items)
	require.Len(t, results, 3)

	// One call for the query, one batch for the items, one batch for the
	// segments of the only item with a transcript.
	assert.Equal(t, int32(1), e.single.Load())
	assert.Equal(t, int32(2), e.batches.Load())
	assert.Equal(t, int32(7), e.texts.Load())
}

func TestRankItemsChunksLargeBatches(t *testing.T) {
	e := &countingEmbedder{mapEmbedder: mapEmbedder{vecs: map[string][]float32{
		"q":     {1, 0},
		"129  ": {1, 0},
	}}}
	var items []catalog.Item
	for i := range 130 {
		items = append(items, item(strconv.Itoa(i), strconv.Itoa(i), 100, 1, 0))
	}

	r := New(e, WithClock(func() time.Time { return testNow }), WithLogger(testLogger()), WithWorkers(2))
	results := r.RankItems(context.Background(), "q", items)
	require.Len(t, results, 3)
	assert.Equal(t, "129", results[0].Item.ID)
	assert.Equal(t, int32(3), e.batches.Load())
	assert.Equal(t, int32(130), e.texts.Load())
}

func TestRankSegmentsFloorIsInclusive(t *testing.T) {
	e := &mapEmbedder{vecs: map[string][]float32{
		"query": {1, 0, 0, 0},
		"half":  {1, 1, 1, 1},
		"under": {1, 1, 1, 2},
	}}
	segments := []transcript.Segment{{Label: "00:01", Text: "under"}, {Label: "00:02", Text: "half"}}

	results := newTestRanker(e).RankSegments(context.Background(), "query", segments)
	require.Len(t, results, 1)
	assert.Equal(t, "half", results[0].Segment.Text)
	assert.Equal(t, SegmentFloor, results[0].Similarity)
}
