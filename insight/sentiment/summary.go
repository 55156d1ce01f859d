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

import "sort"

// Percentages returns the positive and negative shares in percent, or zeros
// when there are no verdicts.
func (r Report) Percentages() (positive, negative float64) {
	total := r.Counts.Total()
	if total == 0 {
		return 0, 0
	}
	return float64(r.Counts.Positive) / float64(total) * 100, float64(r.Counts.Negative) / float64(total) * 100
}

// NetSentiment is the positive share minus the negative share, in percent.
func (r Report) NetSentiment() float64 {
	p, n := r.Percentages()
	return p - n
}

// Highlights returns up to n verdicts with the given label, most liked first.
func (r Report) Highlights(label string, n int) []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if v.Sentiment == label {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LikeCount > out[j].LikeCount
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
