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

// Package repair recovers a JSON object from free-form model output.
//
// Model replies are often wrapped in markdown fences, surrounded by prose, or
// written as loose pseudo-JSON (bare keys, single quotes, Python literals,
// trailing commas). Repair runs a fixed sequence of rewrites and stops at the
// first text that parses strictly into a non-empty object.
package repair

import (
	"encoding/json"
	"strings"

	"media-insight/insight/record"
)

// Stage names the point of the pipeline a Result was produced at.
type Stage int

const (
	StageFailed Stage = iota
	// StageCleaned: the brace span parsed after control characters were
	// stripped and whitespace collapsed.
	StageCleaned
	// StageNormalized: the span parsed after key quoting, quote conversion,
	// literal normalization, comma and escape fixes.
	StageNormalized
	// StageAggressive: the span parsed only after the allow-list pass.
	StageAggressive
)

func (s Stage) String() string {
	switch s {
	case StageCleaned:
		return "cleaned"
	case StageNormalized:
		return "normalized"
	case StageAggressive:
		return "aggressive"
	default:
		return "failed"
	}
}

// Result is the outcome of Parse.
type Result struct {
	Record record.Record
	Stage  Stage
	// Fenced is set when the object was taken from a markdown code block.
	Fenced bool
}

// OK reports whether a record was recovered.
func (r Result) OK() bool {
	return r.Stage != StageFailed && len(r.Record) > 0
}

// Repair returns the object recovered from raw, or false when nothing
// parseable remains. It never panics and never returns an empty record.
func Repair(raw string) (record.Record, bool) {
	res := Parse(raw)
	if !res.OK() {
		return nil, false
	}
	return res.Record, true
}

// Parse is Repair with the pipeline stage reported.
func Parse(raw string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Stage: StageFailed}
		}
	}()

	text, fenced := extractFenced(raw)
	span, ok := braceSpan(text)
	if !ok {
		return Result{Stage: StageFailed, Fenced: fenced}
	}

	cleaned := clean(span)
	if rec, ok := strictParse(cleaned); ok {
		return Result{Record: rec, Stage: StageCleaned, Fenced: fenced}
	}

	normalized := normalize(cleaned)
	if rec, ok := strictParse(normalized); ok {
		return Result{Record: rec, Stage: StageNormalized, Fenced: fenced}
	}

	if rec, ok := strictParse(aggressive(normalized)); ok {
		return Result{Record: rec, Stage: StageAggressive, Fenced: fenced}
	}
	return Result{Stage: StageFailed, Fenced: fenced}
}

// extractFenced returns the first closed ``` block holding both braces, or
// the whole text when there is none.
func extractFenced(text string) (string, bool) {
	parts := strings.Split(text, "```")
	// Blocks sit at odd indices; the last part is never inside a closed fence.
	for i := 1; i < len(parts)-1; i += 2 {
		block := parts[i]
		if strings.Contains(block, "{") && strings.Contains(block, "}") {
			return block, true
		}
	}
	return text, false
}

func braceSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func strictParse(text string) (record.Record, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, false
	}
	if len(out) == 0 {
		return nil, false
	}
	return record.Record(out), true
}
