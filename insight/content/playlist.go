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
	"fmt"
	"strings"

	"media-insight/insight/catalog"
	"media-insight/insight/inference"
	"media-insight/insight/record"
)

const (
	minutesPerVideo   = 10
	focusedSummaryCap = 200
)

var (
	highlightWords   = []string{"learn", "cover", "master", "understand", "practice"}
	topicHeaders     = []string{"topics:", "cover:", "learn:"}
	prereqHeaders    = []string{"prerequisite:", "requirements:", "before:"}
	outcomeHeaders   = []string{"outcome:", "will learn:", "takeaway:"}
	beginnerKeywords = []string{"basic", "beginner", "introduction", "fundamental", "start", "first step"}
	advancedKeywords = []string{"advanced", "expert", "complex", "deep dive", "professional", "optimization"}
)

type PlaylistSummary struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	VideoCount     int      `json:"video_count"`
	Description    string   `json:"original_description"`
	Summary        string   `json:"generated_description"`
	TargetAudience string   `json:"target_audience"`
	KeyTopics      []string `json:"key_topics"`
	// Generated is false when the summary is the built-in fallback.
	Generated bool                 `json:"generated"`
	Analysis  *DescriptionAnalysis `json:"content_analysis,omitempty"`
}

type DescriptionAnalysis struct {
	Topics            []string `json:"topics"`
	Prerequisites     []string `json:"prerequisites"`
	LearningOutcomes  []string `json:"learning_outcomes"`
	FocusedSummary    string   `json:"focused_summary"`
	EstimatedDuration string   `json:"estimated_duration"`
	DifficultyLevel   string   `json:"difficulty_level"`
}

// PlaylistSchema is the fallback for a playlist summary; it depends on the
// playlist itself.
func PlaylistSchema(title string, videoCount int) record.Schema {
	return record.Schema{
		Name: "playlist",
		Fields: []record.Field{
			{Key: "summary", Default: fmt.Sprintf("A collection of %d videos about %s", videoCount, title)},
			{Key: "target_audience", Default: "General audience"},
			{Key: "key_topics", Default: []string{title}},
		},
	}
}

// SummarizePlaylist generates a summary for p. A reply missing any required
// key is replaced by the fallback as a whole.
func (a *Analyzer) SummarizePlaylist(ctx context.Context, p catalog.Playlist) (PlaylistSummary, error) {
	title := strings.TrimSpace(p.Title)
	description := strings.TrimSpace(p.Description)
	schema := PlaylistSchema(title, p.VideoCount)

	rec, err := a.invoker.Invoke(ctx, fmt.Sprintf(playlistPrompt, title, description, p.VideoCount))
	if err != nil {
		return PlaylistSummary{}, fmt.Errorf("playlist %s: %w", p.ID, err)
	}
	generated := true
	if inference.IsSentinel(rec) || len(schema.Missing(rec)) > 0 {
		a.logger.Warn("playlist summary fell back to defaults", "playlist", p.ID)
		rec = schema.Default()
		generated = false
	}
	rec, _ = schema.Apply(rec)

	out := PlaylistSummary{
		ID:             p.ID,
		Title:          title,
		URL:            "https://www.youtube.com/playlist?list=" + p.ID,
		VideoCount:     p.VideoCount,
		Description:    description,
		Summary:        rec.String("summary", ""),
		TargetAudience: rec.String("target_audience", ""),
		KeyTopics:      rec.Strings("key_topics"),
		Generated:      generated,
		Analysis:       AnalyzeDescription(p),
	}
	if out.Description == "" {
		out.Description = "No description available"
	}
	return out, nil
}

// AnalyzeDescription extracts highlights and the topics, prerequisites and
// outcomes sections from a playlist description. It returns nil when there
// is no description.
func AnalyzeDescription(p catalog.Playlist) *DescriptionAnalysis {
	description := strings.TrimSpace(p.Description)
	if description == "" {
		return nil
	}

	var highlights []string
	for _, line := range strings.Split(strings.ToLower(description), "\n") {
		line = strings.TrimSpace(line)
		if !containsAny(line, highlightWords) {
			continue
		}
		clean := strings.TrimSpace(strings.Trim(line, "•-[]()"))
		if len([]rune(clean)) > 10 {
			highlights = append(highlights, clean)
		}
	}
	focused := description
	if len(highlights) > 0 {
		focused = strings.Join(highlights[:min(3, len(highlights))], " ")
	} else if r := []rune(description); len(r) > focusedSummaryCap {
		focused = string(r[:focusedSummaryCap]) + "..."
	}

	out := &DescriptionAnalysis{
		Topics:            []string{},
		Prerequisites:     []string{},
		LearningOutcomes:  []string{},
		FocusedSummary:    focused,
		EstimatedDuration: fmt.Sprintf("%d minutes", p.VideoCount*minutesPerVideo),
		DifficultyLevel:   EstimateDifficulty(description),
	}

	var section *[]string
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case containsAny(lower, topicHeaders):
			section = &out.Topics
			continue
		case containsAny(lower, prereqHeaders):
			section = &out.Prerequisites
			continue
		case containsAny(lower, outcomeHeaders):
			section = &out.LearningOutcomes
			continue
		}
		if section == nil || line == "" || strings.HasPrefix(line, "http") {
			continue
		}
		if entry := strings.TrimSpace(strings.Trim(line, "-•⚫")); entry != "" {
			*section = append(*section, entry)
		}
	}
	if len(out.Topics) == 0 {
		out.Topics = []string{"General " + strings.TrimSpace(p.Title)}
	}
	return out
}

// EstimateDifficulty guesses a level from beginner and advanced keywords.
func EstimateDifficulty(description string) string {
	lower := strings.ToLower(description)
	beginner := countContained(lower, beginnerKeywords)
	advanced := countContained(lower, advancedKeywords)
	switch {
	case advanced > beginner:
		return "Advanced"
	case beginner > 0:
		return "Beginner"
	default:
		return "Intermediate"
	}
}

func containsAny(s string, words []string) bool {
	return countContained(s, words) > 0
}

func countContained(s string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(s, w) {
			n++
		}
	}
	return n
}
