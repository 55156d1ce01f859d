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

// Package content derives an educational profile for videos and playlists
// from their titles and descriptions.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"media-insight/insight/inference"
	"media-insight/insight/record"
)

const unknown = "Unknown"

var (
	SubjectSchema = record.Schema{
		Name: "subject",
		Fields: []record.Field{
			{Key: "subject", Default: unknown},
			{Key: "subtopic", Default: unknown},
		},
	}
	DifficultySchema = record.Schema{
		Name: "difficulty",
		Fields: []record.Field{
			{Key: "difficulty_level", Default: unknown},
			{Key: "target_audience", Default: unknown},
			{Key: "prerequisites", Default: []string{}},
		},
	}
	ConceptsSchema = record.Schema{
		Name: "concepts",
		Fields: []record.Field{
			{Key: "concepts", Default: []string{}},
		},
	}
)

// Invoker is the structured-output call every prompt goes through.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (record.Record, error)
}

type Profile struct {
	Subject         string   `json:"subject"`
	Subtopic        string   `json:"subtopic"`
	DifficultyLevel string   `json:"difficulty_level"`
	TargetAudience  string   `json:"target_audience"`
	Prerequisites   []string `json:"prerequisites"`
	Concepts        []string `json:"concepts"`
	// Defaulted lists the fields that fell back to defaults.
	Defaulted []string `json:"defaulted,omitempty"`
}

type Analyzer struct {
	invoker Invoker
	logger  *slog.Logger
}

func NewAnalyzer(invoker Invoker, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{invoker: invoker, logger: logger}
}

// Profile asks three focused questions about a video. Unusable answers fall
// back to each question's defaults; only an unavailable capability errors.
func (a *Analyzer) Profile(ctx context.Context, title, description string) (Profile, error) {
	subject, fillA, err := a.ask(ctx, SubjectSchema, fmt.Sprintf(subjectPrompt, title, description))
	if err != nil {
		return Profile{}, err
	}
	difficulty, fillB, err := a.ask(ctx, DifficultySchema, fmt.Sprintf(difficultyPrompt, title, description))
	if err != nil {
		return Profile{}, err
	}
	concepts, fillC, err := a.ask(ctx, ConceptsSchema, fmt.Sprintf(conceptsPrompt, title, description))
	if err != nil {
		return Profile{}, err
	}

	defaulted := append(append(fillA, fillB...), fillC...)
	sort.Strings(defaulted)
	return Profile{
		Subject:         subject.String("subject", unknown),
		Subtopic:        subject.String("subtopic", unknown),
		DifficultyLevel: difficulty.String("difficulty_level", unknown),
		TargetAudience:  difficulty.String("target_audience", unknown),
		Prerequisites:   difficulty.Strings("prerequisites"),
		Concepts:        concepts.Strings("concepts"),
		Defaulted:       defaulted,
	}, nil
}

// ask invokes one prompt and applies schema. A sentinel reply becomes the
// schema's defaults.
func (a *Analyzer) ask(ctx context.Context, schema record.Schema, prompt string) (record.Record, []string, error) {
	rec, err := a.invoker.Invoke(ctx, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("%s analysis: %w", schema.Name, err)
	}
	if inference.IsSentinel(rec) {
		a.logger.Warn("content analysis fell back to defaults", "question", schema.Name,
			"failure_mode", string(inference.SentinelFailure(rec)))
		rec = nil
	}
	out, filled := schema.Apply(rec)
	return out, filled, nil
}
