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

package content

const subjectPrompt = `Analyze this educational video's title and description. Focus only on the subject area:
Title: %s
Description: %s
Return ONLY a JSON object in this format (no other text):
{"subject": "main subject area", "subtopic": "specific subtopic or branch"}`

const difficultyPrompt = `For an educational video, analyze:
Title: %s
Description: %s
Return ONLY a JSON object in this format (no other text):
{"difficulty_level": "beginner/intermediate/advanced", "target_audience": "intended audience", "prerequisites": ["required", "background", "knowledge"]}`

const conceptsPrompt = `From this educational video's content:
Title: %s
Description: %s
Return ONLY a JSON object in this format (no other text):
{"concepts": ["list", "of", "key", "concepts"]}`

const playlistPrompt = `Analyze this YouTube playlist and create a brief, informative description.

PLAYLIST DETAILS
Title: %s
Description: %s
Video Count: %d

REQUIRED FORMAT
Return ONLY a valid JSON object with no additional text:
{
  "summary": "A clear, concise 2-3 sentence description of what this playlist teaches",
  "target_audience": "A specific description of who would benefit most from this content",
  "key_topics": ["3-5 main topics", "covered in", "this playlist"]
}`
