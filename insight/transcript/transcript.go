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

// Package transcript splits timestamped transcripts into segments.
package transcript

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is a contiguous stretch of transcript text starting at a
// timestamp. Segments are immutable once produced.
type Segment struct {
	Label  string `json:"timestamp"`
	Offset int    `json:"offset_seconds"`
	Text   string `json:"text"`
}

// Parse splits transcript text of the form
//
//	[MM:SS] text
//	continuation text
//
// into segments in input order. A bracketed line opens a new segment and
// unbracketed lines append to the open one, joined by single spaces. Text
// before the first timestamp belongs to an implicit 00:00 segment. Segments
// that end up without text are dropped.
func Parse(text string) []Segment {
	var (
		out []Segment
		cur = Segment{Label: Label(0)}
		buf []string
	)
	flush := func() {
		if len(buf) > 0 {
			cur.Text = strings.Join(buf, " ")
			out = append(out, cur)
		}
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if label, rest, ok := splitTimestamp(line); ok {
			flush()
			cur = Segment{Label: label, Offset: ParseOffset(label)}
			if rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return out
}

func splitTimestamp(line string) (label, rest string, ok bool) {
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[1:end]), strings.TrimSpace(line[end+1:]), true
}

// ParseOffset converts an "MM:SS" label to seconds. Anything else is 0.
func ParseOffset(label string) int {
	parts := strings.Split(label, ":")
	if len(parts) != 2 {
		return 0
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || minutes < 0 {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || seconds < 0 {
		return 0
	}
	return minutes*60 + seconds
}

// Label renders an offset in seconds as MM:SS. Minutes are not wrapped into
// hours, so Label and ParseOffset round-trip.
func Label(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Format renders segments back into "[MM:SS] text" lines.
func Format(segments []Segment) string {
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s", s.Label, s.Text)
	}
	return b.String()
}
