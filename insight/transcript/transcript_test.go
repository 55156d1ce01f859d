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

package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		input string
		want  []Segment
	}{
		"continuation lines": {
			input: "[00:05] Hello\nworld\n[01:10] Next",
			want: []Segment{
				{Label: "00:05", Offset: 5, Text: "Hello world"},
				{Label: "01:10", Offset: 70, Text: "Next"},
			},
		},
		"malformed timestamp": {
			input: "[xx:yy] text",
			want:  []Segment{{Label: "xx:yy", Offset: 0, Text: "text"}},
		},
		"text before first timestamp": {
			input: "intro words\n[00:03] body",
			want: []Segment{
				{Label: "00:00", Offset: 0, Text: "intro words"},
				{Label: "00:03", Offset: 3, Text: "body"},
			},
		},
		"blank lines and padding": {
			input: "\n  [00:01]   a  \n\n   b\r\n[00:02] c\n\n",
			want: []Segment{
				{Label: "00:01", Offset: 1, Text: "a b"},
				{Label: "00:02", Offset: 2, Text: "c"},
			},
		},
		"timestamp without text is dropped": {
			input: "[00:10]\n[00:20] hi",
			want:  []Segment{{Label: "00:20", Offset: 20, Text: "hi"}},
		},
		"timestamp text on next line": {
			input: "[00:10]\nhello",
			want:  []Segment{{Label: "00:10", Offset: 10, Text: "hello"}},
		},
		"hour style label is not MM:SS": {
			input: "[1:02:03] late",
			want:  []Segment{{Label: "1:02:03", Offset: 0, Text: "late"}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input))
		})
	}
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("\n\n  \n"))
}

func TestParseOffset(t *testing.T) {
	assert.Equal(t, 0, ParseOffset("00:00"))
	assert.Equal(t, 125, ParseOffset("02:05"))
	assert.Equal(t, 4510, ParseOffset("75:10"))
	assert.Equal(t, 0, ParseOffset("-1:10"))
	assert.Equal(t, 0, ParseOffset("ab"))
	assert.Equal(t, 0, ParseOffset(""))
}

func TestFormatRoundTrip(t *testing.T) {
	segments := []Segment{
		{Label: Label(5), Offset: 5, Text: "Hello world"},
		{Label: Label(4510), Offset: 4510, Text: "Late"},
	}
	assert.Equal(t, "[00:05] Hello world\n[75:10] Late", Format(segments))
	assert.Equal(t, segments, Parse(Format(segments)))
}

func TestParseSRT(t *testing.T) {
	input := "\ufeff1\n00:00:01,000 --> 00:00:03,500\nHello there\nfriend\n\n2\n00:01:02,250 --> 00:01:04,000\nSecond cue\n\n3\n00:01:05,000 --> 00:01:06,000\n\n"
	segments, err := ParseSRT(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Label: "00:01", Offset: 1, Text: "Hello there friend"},
		{Label: "01:02", Offset: 62, Text: "Second cue"},
	}, segments)
}

func TestParseCuesVTT(t *testing.T) {
	input := "WEBVTT\n\nNOTE generated\n\n00:05.000 --> 00:07.500 align:start\nvtt line\n"
	cues, err := ParseCues(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cues, 1)
	assert.InDelta(t, 5.0, cues[0].StartSec, 1e-9)
	assert.InDelta(t, 7.5, cues[0].EndSec, 1e-9)
	assert.Equal(t, "vtt line", cues[0].Text)
}

func TestParseCuesInvalidTiming(t *testing.T) {
	_, err := ParseCues(strings.NewReader("1\nxx --> yy\ntext\n"))
	assert.Error(t, err)
}
