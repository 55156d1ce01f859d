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

// Package compare scores a set of videos against each other and recommends
// the best one.
package compare

import (
	"math"
	"sort"
	"strings"

	"media-insight/insight/catalog"
)

const (
	engagementWeight = 0.3
	sentimentWeight  = 0.4
	ratioWeight      = 0.1
)

var relatedSubjects = map[string][]string{
	"machine learning":        {"computer science", "artificial intelligence", "data science"},
	"computer science":        {"machine learning", "artificial intelligence", "data science"},
	"artificial intelligence": {"machine learning", "computer science", "data science"},
	"data science":            {"machine learning", "computer science", "artificial intelligence"},
	"mathematics":             {"statistics", "algebra", "calculus", "linear algebra"},
	"statistics":              {"mathematics", "data science", "probability"},
	"physics":                 {"mathematics", "engineering"},
	"chemistry":               {"biochemistry", "chemical engineering"},
}

// Mismatch is a video whose subject does not fit the first video's.
type Mismatch struct {
	Index       int    `json:"index"`
	Subject     string `json:"subject"`
	MainSubject string `json:"main_subject"`
}

// DomainCompatible checks that every subject is the first one or related to
// it. An empty list is compatible.
func DomainCompatible(subjects []string) (bool, []Mismatch) {
	if len(subjects) == 0 {
		return true, nil
	}
	main := strings.ToLower(strings.TrimSpace(subjects[0]))
	var mismatched []Mismatch
	for i, s := range subjects {
		current := strings.ToLower(strings.TrimSpace(s))
		if current == main || related(main, current) || related(current, main) {
			continue
		}
		mismatched = append(mismatched, Mismatch{Index: i, Subject: s, MainSubject: main})
	}
	return len(mismatched) == 0, mismatched
}

func related(from, to string) bool {
	for _, s := range relatedSubjects[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Ratios compares one video's counters with the set average.
type Ratios struct {
	Views    float64 `json:"view_ratio"`
	Likes    float64 `json:"likes_ratio"`
	Comments float64 `json:"comments_ratio"`
}

// ComparativeScores returns item's counters divided by the averages over all.
func ComparativeScores(item catalog.Item, all []catalog.Item) Ratios {
	n := float64(len(all))
	if n == 0 {
		n = 1
	}
	var views, likes, comments float64
	for _, it := range all {
		views += float64(it.ViewCount)
		likes += float64(it.LikeCount)
		comments += float64(it.CommentCount)
	}
	return Ratios{
		Views:    ratio(float64(item.ViewCount), views/n),
		Likes:    ratio(float64(item.LikeCount), likes/n),
		Comments: ratio(float64(item.CommentCount), comments/n),
	}
}

func ratio(v, avg float64) float64 {
	if avg <= 0 {
		return 0
	}
	return round2(v / avg)
}

// EngagementPercent averages likes and comments as percentages of views.
func EngagementPercent(item catalog.Item) float64 {
	views := float64(max(item.ViewCount, 1))
	likes := round2(float64(item.LikeCount) / views * 100)
	comments := round2(float64(item.CommentCount) / views * 100)
	return round2((likes + comments) / 2)
}

type Entry struct {
	Item catalog.Item
	// NetSentiment is the positive minus negative comment share, in percent.
	NetSentiment float64
}

type Recommendation struct {
	Item          catalog.Item `json:"video"`
	Engagement    float64      `json:"engagement_rate"`
	NetSentiment  float64      `json:"net_sentiment"`
	Ratios        Ratios       `json:"comparative"`
	EngagementSub float64      `json:"engagement_subscore"`
	SentimentSub  float64      `json:"sentiment_subscore"`
	ViewSub       float64      `json:"view_subscore"`
	LikesSub      float64      `json:"likes_subscore"`
	CommentsSub   float64      `json:"comments_subscore"`
	Total         float64      `json:"total_score"`
}

// Recommend scores every entry and returns them best first. Ties keep input
// order.
func Recommend(entries []Entry) []Recommendation {
	items := make([]catalog.Item, len(entries))
	for i, e := range entries {
		items[i] = e.Item
	}

	out := make([]Recommendation, 0, len(entries))
	for _, e := range entries {
		r := Recommendation{
			Item:         e.Item,
			Engagement:   EngagementPercent(e.Item),
			NetSentiment: round2(e.NetSentiment),
			Ratios:       ComparativeScores(e.Item, items),
		}
		r.EngagementSub = round2(r.Engagement * engagementWeight)
		r.SentimentSub = round2(math.Max(0, r.NetSentiment) * sentimentWeight)
		r.ViewSub = round2(r.Ratios.Views * ratioWeight)
		r.LikesSub = round2(r.Ratios.Likes * ratioWeight)
		r.CommentsSub = round2(r.Ratios.Comments * ratioWeight)
		r.Total = round2(r.EngagementSub + r.SentimentSub + r.ViewSub + r.LikesSub + r.CommentsSub)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
