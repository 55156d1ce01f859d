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

package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"media-insight/insight/transcript"
)

// Dir reads YouTube Data API v3 responses saved under a directory:
//
//	videos/<id>.json        videos.list response (or a bare video resource)
//	comments/<id>.json      commentThreads.list response, or an array of pages
//	transcripts/<id>.txt    "[MM:SS] text" transcript (.srt and .vtt also work)
//	playlists.json          playlists.list response
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) Video(ctx context.Context, id string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, err
	}
	data, err := d.read("videos", id+".json")
	if err != nil {
		return Item{}, err
	}
	if !gjson.ValidBytes(data) {
		return Item{}, fmt.Errorf("catalog: videos/%s.json is not valid JSON", id)
	}
	item := parseVideo(gjson.ParseBytes(data))
	if item.ID == "" {
		item.ID = id
	}
	return item, nil
}

// Videos returns every saved video, ordered by file name.
func (d *Dir) Videos(ctx context.Context) ([]Item, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, "videos"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Join(d.root, "videos"))
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(ids)

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		item, err := d.Video(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Comments returns up to limit top-level comments (all when limit <= 0) in
// file order.
func (d *Dir) Comments(ctx context.Context, id string, limit int) ([]Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := d.read("comments", id+".json")
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("catalog: comments/%s.json is not valid JSON", id)
	}

	var out []Comment
	collect := func(page gjson.Result) bool {
		page.Get("items").ForEach(func(_, thread gjson.Result) bool {
			if limit > 0 && len(out) >= limit {
				return false
			}
			snippet := thread.Get("snippet.topLevelComment.snippet")
			if !snippet.Exists() {
				// commentThreads and comments.list responses differ by one level.
				snippet = thread.Get("snippet")
			}
			text := snippet.Get("textOriginal").String()
			if text == "" {
				text = snippet.Get("textDisplay").String()
			}
			out = append(out, Comment{
				Text:        text,
				LikeCount:   snippet.Get("likeCount").Int(),
				PublishedAt: parseTime(snippet.Get("publishedAt").String()),
			})
			return true
		})
		return limit <= 0 || len(out) < limit
	}

	doc := gjson.ParseBytes(data)
	if doc.IsArray() {
		doc.ForEach(func(_, page gjson.Result) bool { return collect(page) })
	} else {
		collect(doc)
	}
	return out, nil
}

// Transcript loads the first of <id>.txt, <id>.srt, <id>.vtt that exists.
func (d *Dir) Transcript(ctx context.Context, id string) ([]transcript.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, ext := range []string{".txt", ".srt", ".vtt"} {
		data, err := d.read("transcripts", id+ext)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if ext == ".txt" {
			return transcript.Parse(string(data)), nil
		}
		return transcript.ParseSRT(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("%w: transcript for %s", ErrNotFound, id)
}

func (d *Dir) Playlists(ctx context.Context) ([]Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := d.read("playlists.json")
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("catalog: playlists.json is not valid JSON")
	}

	var out []Playlist
	gjson.GetBytes(data, "items").ForEach(func(_, p gjson.Result) bool {
		thumb := p.Get("snippet.thumbnails.high.url").String()
		if thumb == "" {
			thumb = p.Get("snippet.thumbnails.default.url").String()
		}
		out = append(out, Playlist{
			ID:          p.Get("id").String(),
			Title:       p.Get("snippet.title").String(),
			Description: p.Get("snippet.description").String(),
			VideoCount:  int(p.Get("contentDetails.itemCount").Int()),
			Thumbnail:   thumb,
			PublishedAt: parseTime(p.Get("snippet.publishedAt").String()),
		})
		return true
	})
	return out, nil
}

func (d *Dir) read(parts ...string) ([]byte, error) {
	path := filepath.Join(append([]string{d.root}, parts...)...)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

func parseVideo(doc gjson.Result) Item {
	v := doc
	if first := doc.Get("items.0"); first.Exists() {
		v = first
	}
	var tags []string
	v.Get("snippet.tags").ForEach(func(_, tag gjson.Result) bool {
		if s := strings.TrimSpace(tag.String()); s != "" {
			tags = append(tags, s)
		}
		return true
	})
	return Item{
		ID:           v.Get("id").String(),
		Title:        v.Get("snippet.title").String(),
		Description:  v.Get("snippet.description").String(),
		Tags:         tags,
		ChannelTitle: v.Get("snippet.channelTitle").String(),
		CategoryID:   v.Get("snippet.categoryId").String(),
		Duration:     v.Get("contentDetails.duration").String(),
		ViewCount:    v.Get("statistics.viewCount").Int(),
		LikeCount:    v.Get("statistics.likeCount").Int(),
		CommentCount: v.Get("statistics.commentCount").Int(),
		PublishedAt:  parseTime(v.Get("snippet.publishedAt").String()),
	}
}

// parseTime accepts RFC 3339 timestamps. Anything else is the zero time.
func parseTime(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
