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

package sentiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-insight/insight/catalog"
	"media-insight/insight/inference"
	"media-insight/insight/record"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeInvoker struct {
	mu      sync.Mutex
	prompts []string
	respond func(texts []string) (record.Record, error)
}

func (f *fakeInvoker) Invoke(_ context.Context, prompt string) (record.Record, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.respond(promptTexts(prompt))
}

func (f *fakeInvoker) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func promptTexts(prompt string) []string {
	var texts []string
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "- ") {
			texts = append(texts, strings.TrimPrefix(line, "- "))
		}
	}
	return texts
}

func results(labels ...string) record.Record {
	items := make([]any, len(labels))
	for i, l := range labels {
		items[i] = map[string]any{"sentiment": l, "confidence": "high", "key_phrases": []any{"k"}}
	}
	return record.Record{"results": items}
}

// labelByText answers positive for texts whose number is even.
func labelByText(texts []string) (record.Record, error) {
	labels := make([]string, len(texts))
	for i, t := range texts {
		var n int
		_, _ = fmt.Sscanf(t, "c%d", &n)
		if n%2 == 0 {
			labels[i] = Positive
		} else {
			labels[i] = Negative
		}
	}
	return results(labels...), nil
}

func makeComments(n int) []catalog.Comment {
	out := make([]catalog.Comment, n)
	for i := range out {
		out[i] = catalog.Comment{Text: fmt.Sprintf("c%03d", i), LikeCount: int64(i)}
	}
	return out
}

func TestAnalyzeBatchesAndCounts(t *testing.T) {
	inv := &fakeInvoker{respond: labelByText}
	agg := NewAggregator(inv, WithLogger(testLogger()))

	report, err := agg.Analyze(context.Background(), makeComments(45))
	require.NoError(t, err)

	assert.Equal(t, 3, inv.calls())
	assert.Equal(t, 3, report.Batches)
	require.Len(t, report.Verdicts, 45)
	assert.Equal(t, 0, report.Dropped)
	assert.Equal(t, Counts{Positive: 23, Negative: 22}, report.Counts)

	// Most liked first.
	assert.Equal(t, "c044", report.Verdicts[0].Text)
	assert.Equal(t, int64(44), report.Verdicts[0].LikeCount)
	assert.Equal(t, Positive, report.Verdicts[0].Sentiment)
	assert.Equal(t, "c043", report.Verdicts[1].Text)
	assert.Equal(t, Negative, report.Verdicts[1].Sentiment)
	assert.Equal(t, "c000", report.Verdicts[44].Text)
	assert.Equal(t, "high", report.Verdicts[0].Confidence)
	assert.Equal(t, []string{"k"}, report.Verdicts[0].KeyPhrases)

	assert.Len(t, promptTexts(inv.prompts[0]), 20)
	assert.Len(t, promptTexts(inv.prompts[2]), 5)
}

func TestAnalyzeTopN(t *testing.T) {
	inv := &fakeInvoker{respond: labelByText}
	report, err := NewAggregator(inv, WithLogger(testLogger())).Analyze(context.Background(), makeComments(150))
	require.NoError(t, err)

	assert.Equal(t, 5, inv.calls())
	require.Len(t, report.Verdicts, 100)
	assert.Equal(t, "c149", report.Verdicts[0].Text)
	assert.Equal(t, "c050", report.Verdicts[99].Text)
	assert.Equal(t, report.Counts.Total(), len(report.Verdicts))
}

func TestAnalyzeMisalignedReply(t *testing.T) {
	inv := &fakeInvoker{respond: func(texts []string) (record.Record, error) {
		labels := make([]string, len(texts)-1)
		for i := range labels {
			labels[i] = Positive
		}
		return results(labels...), nil
	}}

	report, err := NewAggregator(inv, WithLogger(testLogger())).Analyze(context.Background(), makeComments(20))
	require.NoError(t, err)
	assert.Len(t, report.Verdicts, 19)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, Counts{Positive: 19}, report.Counts)
	// The zip is positional: the last comment is the one without a verdict.
	assert.Equal(t, "c001", report.Verdicts[18].Text)
}

func TestAnalyzeLongerReplyIsTruncated(t *testing.T) {
	inv := &fakeInvoker{respond: func(texts []string) (record.Record, error) {
		return results(Positive, Positive, Positive, Positive), nil
	}}
	report, err := NewAggregator(inv, WithLogger(testLogger())).Analyze(context.Background(), makeComments(2))
	require.NoError(t, err)
	assert.Len(t, report.Verdicts, 2)
	assert.Equal(t, 0, report.Dropped)
}

func TestAnalyzeLabelPolicy(t *testing.T) {
	inv := &fakeInvoker{respond: func(texts []string) (record.Record, error) {
		return record.Record{"results": []any{
			map[string]any{"sentiment": "positive", "confidence": "MEDIUM"},
			map[string]any{"sentiment": "neutral", "confidence": "certain"},
			map[string]any{"sentiment": "Positive"},
			map[string]any{},
			"not an object",
		}}, nil
	}}
	report, err := NewAggregator(inv, WithLogger(testLogger())).Analyze(context.Background(), []catalog.Comment{
		{Text: "a", LikeCount: 5}, {Text: "b", LikeCount: 4}, {Text: "c", LikeCount: 3},
		{Text: "d", LikeCount: 2}, {Text: "e", LikeCount: 1},
	})
	require.NoError(t, err)
	require.Len(t, report.Verdicts, 5)

	assert.Equal(t, Counts{Positive: 1, Negative: 4}, report.Counts)
	assert.Equal(t, "medium", report.Verdicts[0].Confidence)
	assert.Equal(t, "low", report.Verdicts[1].Confidence)
	assert.Equal(t, Negative, report.Verdicts[2].Sentiment)
	assert.Equal(t, []string{}, report.Verdicts[3].KeyPhrases)
	assert.Equal(t, Negative, report.Verdicts[4].Sentiment)
}

func TestAnalyzeExhaustedBatch(t *testing.T) {
	var n int
	var mu sync.Mutex
	inv := &fakeInvoker{respond: func(texts []string) (record.Record, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n == 1 {
			return inference.Sentinel(inference.FailureMalformed, errors.New("garbage"), 3), nil
		}
		return labelByText(texts)
	}}

	report, err := NewAggregator(inv, WithLogger(testLogger())).Analyze(context.Background(), makeComments(30))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Batches)
	assert.Len(t, report.Verdicts, 10)
	assert.Equal(t, 20, report.Dropped)
	assert.Equal(t, "c009", report.Verdicts[0].Text)
}

func TestAnalyzeMissingResultsKey(t *testing.T) {
	inv := &fakeInvoker{respond: func([]string) (record.Record, error) {
		return record.Record{"summary": "all good"}, nil
	}}
	report, err := NewAggregator(inv, WithLogger(testLogger())).Analyze(context.Background(), makeComments(3))
	require.NoError(t, err)
	assert.Empty(t, report.Verdicts)
	assert.Equal(t, 3, report.Dropped)
	assert.Equal(t, Counts{}, report.Counts)
}

func TestAnalyzeUnavailablePropagates(t *testing.T) {
	inv := &fakeInvoker{respond: func([]string) (record.Record, error) {
		return inference.Sentinel(inference.FailureUnavailable, inference.ErrUnavailable, 1), inference.ErrUnavailable
	}}
	_, err := NewAggregator(inv, WithLogger(testLogger())).Analyze(context.Background(), makeComments(3))
	assert.ErrorIs(t, err, inference.ErrUnavailable)
}

func TestAnalyzeNoComments(t *testing.T) {
	inv := &fakeInvoker{respond: labelByText}
	report, err := NewAggregator(inv, WithLogger(testLogger())).Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.calls())
	assert.Equal(t, 0, report.Batches)
	assert.NotNil(t, report.Verdicts)
	assert.Empty(t, report.Verdicts)
}

func TestAnalyzeConcurrentMatchesSequential(t *testing.T) {
	comments := makeComments(95)

	seq, err := NewAggregator(&fakeInvoker{respond: labelByText}, WithLogger(testLogger())).
		Analyze(context.Background(), comments)
	require.NoError(t, err)

	par, err := NewAggregator(&fakeInvoker{respond: labelByText}, WithLogger(testLogger()), WithWorkers(4), WithBatchSize(7)).
		Analyze(context.Background(), comments)
	require.NoError(t, err)

	assert.Equal(t, seq.Verdicts, par.Verdicts)
	assert.Equal(t, seq.Counts, par.Counts)
	assert.Equal(t, 14, par.Batches)
}

func TestTopByLikesStable(t *testing.T) {
	in := []catalog.Comment{{Text: "a", LikeCount: 1}, {Text: "b", LikeCount: 3}, {Text: "c", LikeCount: 1}, {Text: "d", LikeCount: 3}}
	out := TopByLikes(in, 3)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"b", "d", "a"}, []string{out[0].Text, out[1].Text, out[2].Text})
	assert.Equal(t, "a", in[0].Text)
}

func TestBatchPrompt(t *testing.T) {
	prompt := BatchPrompt([]catalog.Comment{{Text: "Great\nvideo  here"}, {Text: "meh"}})
	assert.Equal(t, []string{"Great video here", "meh"}, promptTexts(prompt))
	assert.Contains(t, prompt, `"results"`)
}

func TestReportSummaries(t *testing.T) {
	report := Report{
		Verdicts: []Verdict{
			{Text: "a", Sentiment: Positive, LikeCount: 1},
			{Text: "b", Sentiment: Negative, LikeCount: 9},
			{Text: "c", Sentiment: Positive, LikeCount: 7},
			{Text: "d", Sentiment: Positive, LikeCount: 3},
		},
		Counts: Counts{Positive: 3, Negative: 1},
	}
	p, n := report.Percentages()
	assert.InDelta(t, 75.0, p, 1e-9)
	assert.InDelta(t, 25.0, n, 1e-9)
	assert.InDelta(t, 50.0, report.NetSentiment(), 1e-9)

	top := report.Highlights(Positive, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "c", top[0].Text)
	assert.Equal(t, "d", top[1].Text)

	empty := Report{}
	p, n = empty.Percentages()
	assert.Zero(t, p)
	assert.Zero(t, n)
}
