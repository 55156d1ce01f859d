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

package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
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

// scripted answers a prompt by the marker it contains.
type scripted map[string]record.Record

func (s scripted) Invoke(_ context.Context, prompt string) (record.Record, error) {
	for marker, rec := range s {
		if strings.Contains(prompt, marker) {
			return rec, nil
		}
	}
	return inference.Sentinel(inference.FailureEmpty, nil, 3), nil
}

func TestProfileComplete(t *testing.T) {
	inv := scripted{
		"subject area": {"subject": "Mathematics", "subtopic": "Calculus"},
		"For an educational video": {
			"difficulty_level": "beginner",
			"target_audience":  "students",
			"prerequisites":    []any{"algebra"},
		},
		"From this educational": {"concepts": []any{"limits", "derivatives"}},
	}
	p, err := NewAnalyzer(inv, testLogger()).Profile(context.Background(), "Calc 1", "Intro")
	require.NoError(t, err)

	assert.Equal(t, "Mathematics", p.Subject)
	assert.Equal(t, "Calculus", p.Subtopic)
	assert.Equal(t, "beginner", p.DifficultyLevel)
	assert.Equal(t, "students", p.TargetAudience)
	assert.Equal(t, []string{"algebra"}, p.Prerequisites)
	assert.Equal(t, []string{"limits", "derivatives"}, p.Concepts)
	assert.Empty(t, p.Defaulted)
}

func TestProfileFallsBackPerQuestion(t *testing.T) {
	inv := scripted{
		"subject area":             {"subject": "Physics"},
		"For an educational video": {"difficulty_level": 3, "target_audience": "anyone"},
	}
	p, err := NewAnalyzer(inv, testLogger()).Profile(context.Background(), "t", "d")
	require.NoError(t, err)

	assert.Equal(t, "Physics", p.Subject)
	assert.Equal(t, "Unknown", p.Subtopic)
	assert.Equal(t, "Unknown", p.DifficultyLevel)
	assert.Equal(t, "anyone", p.TargetAudience)
	assert.Equal(t, []string{}, p.Prerequisites)
	assert.Equal(t, []string{}, p.Concepts)
	assert.Equal(t, []string{"concepts", "difficulty_level", "prerequisites", "subtopic"}, p.Defaulted)
}

type unavailable struct{}

func (unavailable) Invoke(context.Context, string) (record.Record, error) {
	return nil, inference.ErrUnavailable
}

func TestProfileUnavailable(t *testing.T) {
	_, err := NewAnalyzer(unavailable{}, testLogger()).Profile(context.Background(), "t", "d")
	assert.ErrorIs(t, err, inference.ErrUnavailable)

	_, err = NewAnalyzer(unavailable{}, testLogger()).SummarizePlaylist(context.Background(), catalog.Playlist{ID: "PL1"})
	assert.True(t, errors.Is(err, inference.ErrUnavailable))
}

func TestSummarizePlaylistGenerated(t *testing.T) {
	inv := scripted{"PLAYLIST DETAILS": {
		"summary":         "Learn Go from scratch.",
		"target_audience": "New programmers",
		"key_topics":      []any{"syntax", "concurrency"},
	}}
	s, err := NewAnalyzer(inv, testLogger()).SummarizePlaylist(context.Background(), catalog.Playlist{
		ID: "PL9", Title: " Go Course ", VideoCount: 4,
	})
	require.NoError(t, err)

	assert.True(t, s.Generated)
	assert.Equal(t, "Go Course", s.Title)
	assert.Equal(t, "https://www.youtube.com/playlist?list=PL9", s.URL)
	assert.Equal(t, "Learn Go from scratch.", s.Summary)
	assert.Equal(t, []string{"syntax", "concurrency"}, s.KeyTopics)
	assert.Equal(t, "No description available", s.Description)
	assert.Nil(t, s.Analysis)
}

func TestSummarizePlaylistFallback(t *testing.T) {
	// One key missing discards the whole reply.
	inv := scripted{"PLAYLIST DETAILS": {"summary": "partial", "target_audience": "x"}}
	s, err := NewAnalyzer(inv, testLogger()).SummarizePlaylist(context.Background(), catalog.Playlist{
		ID: "PL2", Title: "Rust", VideoCount: 7,
	})
	require.NoError(t, err)

	assert.False(t, s.Generated)
	assert.Equal(t, "A collection of 7 videos about Rust", s.Summary)
	assert.Equal(t, "General audience", s.TargetAudience)
	assert.Equal(t, []string{"Rust"}, s.KeyTopics)

	s, err = NewAnalyzer(scripted{}, testLogger()).SummarizePlaylist(context.Background(), catalog.Playlist{
		ID: "PL3", Title: "Rust", VideoCount: 1,
	})
	require.NoError(t, err)
	assert.False(t, s.Generated)
	assert.Equal(t, "A collection of 1 videos about Rust", s.Summary)
}

func TestAnalyzeDescriptionSections(t *testing.T) {
	desc := strings.Join([]string{
		"In this course you will learn the basics of statistics.",
		"Topics:",
		"- Mean and median",
		"• Variance",
		"https://example.com/slides",
		"Requirements:",
		"- High school algebra",
		"Outcome:",
		"⚫ Read a chart",
	}, "\n")
	a := AnalyzeDescription(catalog.Playlist{Title: "Stats", Description: desc, VideoCount: 6})
	require.NotNil(t, a)

	assert.Equal(t, []string{"Mean and median", "Variance"}, a.Topics)
	assert.Equal(t, []string{"High school algebra"}, a.Prerequisites)
	assert.Equal(t, []string{"Read a chart"}, a.LearningOutcomes)
	assert.Equal(t, "60 minutes", a.EstimatedDuration)
	assert.Equal(t, "Beginner", a.DifficultyLevel)
	assert.Equal(t, "in this course you will learn the basics of statistics.", a.FocusedSummary)
}

func TestAnalyzeDescriptionDefaults(t *testing.T) {
	assert.Nil(t, AnalyzeDescription(catalog.Playlist{Title: "x", Description: "   "}))

	long := strings.Repeat("a", 250)
	a := AnalyzeDescription(catalog.Playlist{Title: "Misc", Description: long})
	require.NotNil(t, a)
	assert.Equal(t, []string{"General Misc"}, a.Topics)
	assert.Equal(t, strings.Repeat("a", 200)+"...", a.FocusedSummary)
	assert.Equal(t, "0 minutes", a.EstimatedDuration)
	assert.Equal(t, []string{}, a.Prerequisites)
}

func TestEstimateDifficulty(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"An introduction to the basic ideas", "Beginner"},
		{"Advanced optimization for professional engineers", "Advanced"},
		{"A basic start to an advanced topic", "Beginner"},
		{"Advanced and expert material, with a basic recap", "Advanced"},
		{"Cooking pasta", "Intermediate"},
		{"", "Intermediate"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EstimateDifficulty(tc.in), tc.in)
	}
}
