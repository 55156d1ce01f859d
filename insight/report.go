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
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type reportBundle struct {
	RunID string
	Dir   string
	Path  string
}

// createReportBundle makes <root>/.minsight/reports/<run-id>/ and returns
// where report.json goes.
func createReportBundle(root string, now time.Time) (reportBundle, error) {
	runID := now.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
	dir := filepath.Join(root, ".minsight", "reports", runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return reportBundle{}, err
	}
	return reportBundle{
		RunID: runID,
		Dir:   dir,
		Path:  filepath.Join(dir, "report.json"),
	}, nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
