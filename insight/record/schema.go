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

package record

import "sort"

// Field is one required key of a Schema with its fallback value.
type Field struct {
	Key     string
	Default any
}

// Schema lists the keys a call site requires and the value each one falls
// back to when the model omits it or returns the wrong kind.
type Schema struct {
	Name   string
	Fields []Field
}

// Default returns a record holding every field's default.
func (s Schema) Default() Record {
	out := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Key] = copyDefault(f.Default)
	}
	return out
}

// Apply returns a copy of rec with every schema field present and of the same
// kind as its default. Keys outside the schema are kept. The second result
// lists the keys that were filled from defaults, sorted.
func (s Schema) Apply(rec Record) (Record, []string) {
	out := make(Record, len(rec)+len(s.Fields))
	for k, v := range rec {
		out[k] = v
	}
	var filled []string
	for _, f := range s.Fields {
		v, ok := rec[f.Key]
		if ok && v != nil && compatible(KindOf(f.Default), KindOf(v)) {
			continue
		}
		out[f.Key] = copyDefault(f.Default)
		filled = append(filled, f.Key)
	}
	sort.Strings(filled)
	return out, filled
}

// Missing reports the schema keys absent or null in rec.
func (s Schema) Missing(rec Record) []string {
	var missing []string
	for _, f := range s.Fields {
		if !rec.Has(f.Key) {
			missing = append(missing, f.Key)
		}
	}
	return missing
}

func compatible(want, got Kind) bool {
	if want == KindNull || want == KindUnknown {
		return true
	}
	return want == got
}

func copyDefault(v any) any {
	switch d := v.(type) {
	case []string:
		out := make([]any, len(d))
		for i, s := range d {
			out[i] = s
		}
		return out
	case []any:
		return append([]any{}, d...)
	case map[string]any:
		return Record(d).Clone()
	case Record:
		return d.Clone()
	case int:
		return float64(d)
	default:
		return v
	}
}
