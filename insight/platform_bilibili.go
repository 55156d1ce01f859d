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

func bilibiliPlatform() videoPlatform {
	return videoPlatform{
		ID:   "bilibili",
		Name: "Bilibili",
		MatchHosts: []string{
			"bilibili.com",
		},
		VideoID: bilibiliVideoID,
	}
}

// bilibiliVideoID accepts /video/BV... and /video/av... paths. Short b23.tv
// links need a redirect and are not resolved here.
func bilibiliVideoID(u *url.URL) string {
	id := firstPathSegment(u.Path, "/video/")
	lower := strings.ToLower(id)
	if strings.HasPrefix(lower, "bv") || strings.HasPrefix(lower, "av") {
		return id
	}
	return ""
}
