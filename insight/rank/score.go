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

package rank

import (
	"math"
	"time"

	"media-insight/insight/catalog"
)

const (
	likeRatioWeight  = 0.4
	recencyWeight    = 0.6
	similarityWeight = 0.5
	engagementWeight = 0.5
)

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// is all zeros or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RecencyBoost is 2/(1+ln(1+days)); it is 2 on the publish day and decays
// slowly after.
func RecencyBoost(days int) float64 {
	if days < 0 {
		days = 0
	}
	return 2 / (1 + math.Log(1+float64(days)))
}

// DaysSince counts whole days between published and now. Future dates
// count as 0.
func DaysSince(published, now time.Time) int {
	d := now.Sub(published)
	if d <= 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// Engagement combines the like ratio with the recency boost.
func Engagement(item catalog.Item, now time.Time) float64 {
	views := item.ViewCount
	if views < 1 {
		views = 1
	}
	likeRatio := float64(item.LikeCount) / float64(views)
	return likeRatioWeight*likeRatio + recencyWeight*RecencyBoost(DaysSince(item.PublishedAt, now))
}

// FinalScore weighs similarity and engagement equally.
func FinalScore(similarity, engagement float64) float64 {
	return similarityWeight*similarity + engagementWeight*engagement
}
