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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"media-insight/insight/record"
	"media-insight/insight/repair"
)

type repairJSONResult struct {
	OK       bool          `json:"ok"`
	ExitCode int           `json:"exit_code"`
	Error    string        `json:"error,omitempty"`
	Stage    string        `json:"stage"`
	Fenced   bool          `json:"fenced"`
	Record   record.Record `json:"record,omitempty"`
}

func (a *app) repairCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repair [file]",
		Short: "修复模型输出的 JSON（读取文件或标准输入）",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 && args[0] != "-" {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(a.stdin)
			}
			if err != nil {
				return fail(exitUsage, "读取输入失败: %v", err)
			}
			return a.runRepair(string(raw))
		},
	}
}

func (a *app) runRepair(raw string) error {
	res := repair.Parse(raw)
	if !res.OK() {
		return fail(exitAnalysisFailed, "无法从输入中解析出 JSON 对象")
	}
	a.logger.Debug("repaired response", "stage", res.Stage.String(), "fenced", res.Fenced)

	if a.jsonOut {
		printJSON(a.stdout, repairJSONResult{
			OK:       true,
			ExitCode: exitOK,
			Stage:    res.Stage.String(),
			Fenced:   res.Fenced,
			Record:   res.Record,
		})
		return nil
	}
	data, err := json.MarshalIndent(res.Record, "", "  ")
	if err != nil {
		return fail(exitAnalysisFailed, "JSON 序列化失败: %v", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
