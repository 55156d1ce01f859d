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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Cue is one SubRip/WebVTT cue.
type Cue struct {
	StartSec float64
	EndSec   float64
	Text     string
}

// ParseCues reads SubRip (.srt) or WebVTT (.vtt) cues from r.
func ParseCues(r io.Reader) ([]Cue, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		cues  []Cue
		cur   *Cue
		lines []string
	)
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(lines, " ")
			if cur.Text != "" {
				cues = append(cues, *cur)
			}
		}
		cur = nil
		lines = nil
	}

	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
			first = false
		}
		if line == "" {
			flush()
			continue
		}
		if strings.Contains(line, "-->") {
			flush()
			start, end, err := parseCueTiming(line)
			if err != nil {
				return nil, err
			}
			cur = &Cue{StartSec: start, EndSec: end}
			continue
		}
		if cur == nil {
			// Cue numbers, the WEBVTT header and NOTE blocks.
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return cues, nil
}

// ParseSRT converts subtitle cues into segments, one per cue, labelled with
// the cue's start second.
func ParseSRT(r io.Reader) ([]Segment, error) {
	cues, err := ParseCues(r)
	if err != nil {
		return nil, err
	}
	out := make([]Segment, 0, len(cues))
	for _, c := range cues {
		sec := int(c.StartSec)
		out = append(out, Segment{Label: Label(sec), Offset: sec, Text: c.Text})
	}
	return out, nil
}

func parseCueTiming(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	start, err := parseCueTime(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// WebVTT allows cue settings after the end time.
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("cue timing %q: missing end time", line)
	}
	end, err := parseCueTime(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseCueTime parses [HH:]MM:SS[,.]mmm.
func parseCueTime(v string) (float64, error) {
	v = strings.TrimSpace(strings.Replace(v, ",", ".", 1))
	parts := strings.Split(v, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid cue time %q", v)
	}
	var total float64
	for i, p := range parts {
		n, err := strconv.ParseFloat(p, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid cue time %q", v)
		}
		if i < len(parts)-1 {
			total = (total + n) * 60
		} else {
			total += n
		}
	}
	return total, nil
}
