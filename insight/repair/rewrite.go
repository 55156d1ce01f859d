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

package repair

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reWhitespace     = regexp.MustCompile(`\s+`)
	reBareKey        = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_\-]*)(\s*:)`)
	reNullish        = regexp.MustCompile(`\b(?i:none|null|undefined)\b`)
	reBoolean        = regexp.MustCompile(`\b(?i:true|false)\b`)
	reTrailingComma  = regexp.MustCompile(`,(\s*[}\]])`)
	reMissingComma   = regexp.MustCompile(`([}\]])(\s*)([{\[])`)
	reRepeatedComma  = regexp.MustCompile(`,(\s*,)+`)
	reLeadingComma   = regexp.MustCompile(`([{\[])\s*,`)
	reDanglingColon  = regexp.MustCompile(`:\s*([,}\]])`)
	aggressiveAllows = `{}[]":,.-+_\/`
)

// piece is a run of text that is either a quoted literal (quotes included)
// or everything between two literals.
type piece struct {
	text   string
	quoted bool
}

// splitQuoted tokenizes s into quoted literals and the text around them.
// Both quote styles open a literal; backslash escapes the next byte. An
// unterminated literal runs to the end of s.
func splitQuoted(s string) []piece {
	var pieces []piece
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '"' && c != '\'' {
			continue
		}
		if i > start {
			pieces = append(pieces, piece{text: s[start:i]})
		}
		j := i + 1
		for j < len(s) {
			if s[j] == '\\' {
				j += 2
				continue
			}
			if s[j] == c {
				break
			}
			j++
		}
		end := j + 1
		if end > len(s) {
			end = len(s)
		}
		pieces = append(pieces, piece{text: s[i:end], quoted: true})
		start = end
		i = end - 1
	}
	if start < len(s) {
		pieces = append(pieces, piece{text: s[start:]})
	}
	return pieces
}

// outsideQuotes applies fn to the text between quoted literals only.
func outsideQuotes(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, p := range splitQuoted(s) {
		if p.quoted {
			b.WriteString(p.text)
			continue
		}
		b.WriteString(fn(p.text))
	}
	return b.String()
}

// clean strips control characters and collapses whitespace between literals.
// Inside literals raw line breaks and tabs become single spaces, which keeps
// values stable when a repaired record is serialized and repaired again.
func clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r < 0x20 && r != '\n' && r != '\t' && r != '\r') || r == 0x7f {
			return -1
		}
		return r
	}, s)

	var b strings.Builder
	b.Grow(len(s))
	for _, p := range splitQuoted(s) {
		if p.quoted {
			b.WriteString(strings.Map(func(r rune) rune {
				switch r {
				case '\n', '\r', '\t':
					return ' '
				}
				return r
			}, p.text))
			continue
		}
		b.WriteString(reWhitespace.ReplaceAllString(p.text, " "))
	}
	return strings.TrimSpace(b.String())
}

// normalize runs the pseudo-JSON rewrites in order.
func normalize(s string) string {
	s = outsideQuotes(s, func(t string) string {
		return reBareKey.ReplaceAllString(t, `${1}"${2}"${3}`)
	})
	s = singleToDoubleQuotes(s)
	s = outsideQuotes(s, func(t string) string {
		t = reNullish.ReplaceAllString(t, "null")
		return reBoolean.ReplaceAllStringFunc(t, strings.ToLower)
	})
	s = outsideQuotes(s, func(t string) string {
		return reTrailingComma.ReplaceAllString(t, "${1}")
	})
	s = outsideQuotes(s, func(t string) string {
		return reMissingComma.ReplaceAllString(t, "${1},${2}${3}")
	})
	return fixEscapes(s)
}

// singleToDoubleQuotes rewrites 'literals' as "literals". Apostrophes inside
// double-quoted literals are left alone; double quotes inside single-quoted
// literals get escaped.
func singleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, p := range splitQuoted(s) {
		if !p.quoted || p.text[0] != '\'' {
			b.WriteString(p.text)
			continue
		}
		body := p.text[1:]
		if strings.HasSuffix(body, "'") && !strings.HasSuffix(body, `\'`) {
			body = body[:len(body)-1]
		}
		b.WriteByte('"')
		for i := 0; i < len(body); i++ {
			c := body[i]
			switch {
			case c == '\\' && i+1 < len(body) && body[i+1] == '\'':
				b.WriteByte('\'')
				i++
			case c == '\\' && i+1 < len(body):
				b.WriteByte(c)
				b.WriteByte(body[i+1])
				i++
			case c == '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte('"')
	}
	return b.String()
}

// fixEscapes drops backslashes inside double-quoted literals that do not
// start a valid JSON escape.
func fixEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inString = false
			b.WriteByte(c)
		case '\\':
			if i+1 >= len(s) {
				continue
			}
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				b.WriteByte(c)
				b.WriteByte(next)
				i++
			case 'u':
				if i+6 <= len(s) && isHex(s[i+2:i+6]) {
					b.WriteString(s[i : i+6])
					i += 5
				}
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// aggressive keeps only an allow-list of characters and then patches the
// structural holes that leaves behind.
func aggressive(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(aggressiveAllows, r) {
			return r
		}
		return -1
	}, s)
	s = reRepeatedComma.ReplaceAllString(s, ",")
	s = reLeadingComma.ReplaceAllString(s, "${1}")
	s = reTrailingComma.ReplaceAllString(s, "${1}")
	s = reDanglingColon.ReplaceAllString(s, ": null${1}")
	return reMissingComma.ReplaceAllString(s, "${1},${2}${3}")
}
