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

package inference

import "media-insight/insight/record"

// FailureMode classifies why an attempt (or a whole invocation) failed.
type FailureMode string

const (
	FailureEmpty       FailureMode = "empty_response"
	FailureMalformed   FailureMode = "malformed_response"
	FailureGeneration  FailureMode = "generation_error"
	FailureDeadline    FailureMode = "deadline_exceeded"
	FailureUnavailable FailureMode = "capability_unavailable"
)

// Sentinel record keys.
const (
	KeyError       = "error"
	KeyFailureMode = "failure_mode"
	KeyLastError   = "last_error"
	KeyAttempts    = "attempts"

	sentinelValue = "capability_exhausted"
)

// Sentinel builds the record returned when no attempt produced a usable reply.
func Sentinel(mode FailureMode, lastErr error, attempts int) record.Record {
	if mode == "" {
		mode = FailureGeneration
	}
	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	return record.Record{
		KeyError:       sentinelValue,
		KeyFailureMode: string(mode),
		KeyLastError:   msg,
		KeyAttempts:    float64(attempts),
	}
}

// IsSentinel reports whether rec came from Sentinel.
func IsSentinel(rec record.Record) bool {
	return rec.String(KeyError, "") == sentinelValue
}

// SentinelFailure returns the failure mode stored in a sentinel record.
func SentinelFailure(rec record.Record) FailureMode {
	if !IsSentinel(rec) {
		return ""
	}
	return FailureMode(rec.String(KeyFailureMode, ""))
}
