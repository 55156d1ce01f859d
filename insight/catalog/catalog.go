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

// Package catalog defines the video, comment and playlist records the
// analyzers consume, and where they come from.
package catalog

import (
	"context"
	"errors"
	"time"

	"media-insight/insight/transcript"
)

var ErrNotFound = errors.New("catalog: not found")

// Item is one video and its public statistics.
type Item struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags,omitempty"`
	ChannelTitle string    `json:"channel_title,omitempty"`
	CategoryID   string    `json:"category_id,omitempty"`
	Duration     string    `json:"duration,omitempty"`
	ViewCount    int64     `json:"views"`
	LikeCount    int64     `json:"likes"`
	CommentCount int64     `json:"comments_count"`
	PublishedAt  time.Time `json:"published_at"`
	// Segments is the item's transcript, when one was loaded.
	Segments []transcript.Segment `json:"segments,omitempty"`
}

type Comment struct {
	Text        string    `json:"text"`
	LikeCount   int64     `json:"likes"`
	PublishedAt time.Time `json:"published_at"`
}

type Playlist struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoCount  int       `json:"video_count"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Catalog fetches items, comments, transcripts and playlists. Fetch errors
// are returned unchanged; missing records wrap ErrNotFound.
type Catalog interface {
	Video(ctx context.Context, id string) (Item, error)
	Videos(ctx context.Context) ([]Item, error)
	Comments(ctx context.Context, id string, limit int) ([]Comment, error)
	Transcript(ctx context.Context, id string) ([]transcript.Segment, error)
	Playlists(ctx context.Context) ([]Playlist, error)
}
