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
	"net/url"
	"strings"
)

func youtubePlatform() videoPlatform {
	return videoPlatform{
		ID:   "youtube",
		Name: "YouTube",
		MatchHosts: []string{
			"youtube.com",
			"youtu.be",
			"youtube-nocookie.com",
		},
		VideoID: youtubeVideoID,
	}
}

func youtubeVideoID(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if host == "youtu.be" || strings.HasSuffix(host, ".youtu.be") {
		return firstPathSegment(u.Path, "/")
	}
	if u.Path == "/watch" {
		return strings.TrimSpace(u.Query().Get("v"))
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/", "/v/"} {
		if id := firstPathSegment(u.Path, prefix); id != "" {
			return id
		}
	}
	return ""
}
