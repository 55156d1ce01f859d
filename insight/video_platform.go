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

package insight

import (
	"fmt"
	"net/url"
	"strings"
)

type videoPlatform struct {
	// ID is the stable identifier used in reports (e.g. "youtube").
	ID string

	// Name is a human-friendly display name.
	Name string

	// MatchHosts are hostname suffixes that identify this platform.
	MatchHosts []string

	// VideoID extracts the platform's video identifier from a URL, or "".
	VideoID func(u *url.URL) string
}

func (p videoPlatform) MatchesURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(u.Hostname()))
	if host == "" {
		return false
	}
	for _, s := range p.MatchHosts {
		ss := strings.ToLower(strings.TrimSpace(s))
		if ss == "" {
			continue
		}
		if host == ss || strings.HasSuffix(host, "."+ss) {
			return true
		}
	}
	return false
}

func supportedPlatforms() []videoPlatform {
	return []videoPlatform{
		youtubePlatform(),
		bilibiliPlatform(),
	}
}

// platformForURL returns the best matching platform for the given URL.
// The boolean indicates whether the platform is a known/built-in one.
func platformForURL(u *url.URL) (videoPlatform, bool) {
	for _, p := range supportedPlatforms() {
		if p.MatchesURL(u) {
			return p, true
		}
	}
	return videoPlatform{}, false
}

// resolveVideoID turns a video URL or a bare ID into the catalog ID.
func resolveVideoID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("视频引用为空")
	}
	if !strings.Contains(ref, "/") && !strings.Contains(ref, "://") {
		return ref, nil
	}

	raw := ref
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("输入的 URL 无效: %v", err)
	}
	p, ok := platformForURL(u)
	if !ok {
		return "", fmt.Errorf("不支持的视频平台: %s", u.Hostname())
	}
	id := p.VideoID(u)
	if id == "" {
		return "", fmt.Errorf("无法从 %s 链接中识别视频 ID: %s", p.Name, ref)
	}
	return id, nil
}

// dedupeVideoIDs resolves refs and drops repeated references to the same
// video, keeping first occurrences.
func dedupeVideoIDs(refs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := resolveVideoID(ref)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// firstPathSegment returns the path segment after prefix, if the path starts
// with it.
func firstPathSegment(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}
