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

import (
	"strings"

	"media-insight/insight/catalog"
)

const batchPromptHeader = "Analyze these YouTube comments and classify each as strictly positive or negative (no neutral).\n" +
	"Return one result per comment, in the same order.\n" +
	"Comments:\n"

const batchPromptFooter = "\nReturn ONLY a JSON object in this format (no other text):\n" +
	`{"results": [` + "\n" +
	`  {"text": "comment text here", "sentiment": "positive/negative", "confidence": "high/medium/low", "key_phrases": ["key", "phrases"]},` + "\n" +
	"  ...\n" +
	"]}"

// BatchPrompt lists the comment texts, one per line.
func BatchPrompt(batch []catalog.Comment) string {
	var b strings.Builder
	b.WriteString(batchPromptHeader)
	for _, c := range batch {
		b.WriteString("- ")
		b.WriteString(strings.Join(strings.Fields(c.Text), " "))
		b.WriteByte('\n')
	}
	b.WriteString(batchPromptFooter)
	return b.String()
}
