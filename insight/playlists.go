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
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"media-insight/insight/content"
)

type playlistsJSONResult struct {
	OK        bool                      `json:"ok"`
	ExitCode  int                       `json:"exit_code"`
	Playlists []content.PlaylistSummary `json:"playlists"`
}

func (a *app) playlistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "playlists",
		Short: "为目录中的播放列表生成简介",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPlaylists(cmd.Context())
		},
	}
}

func (a *app) runPlaylists(ctx context.Context) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	cat, err := a.catalog(cfg)
	if err != nil {
		return err
	}
	playlists, err := cat.Playlists(ctx)
	if err != nil {
		return classify(err, "读取播放列表")
	}
	client, err := a.inferenceClient(cfg)
	if err != nil {
		return err
	}
	analyzer := content.NewAnalyzer(client, a.logger)

	out := make([]content.PlaylistSummary, 0, len(playlists))
	for _, p := range playlists {
		s, err := analyzer.SummarizePlaylist(ctx, p)
		if err != nil {
			return classify(err, "播放列表分析")
		}
		out = append(out, s)
	}

	if a.jsonOut {
		printJSON(a.stdout, playlistsJSONResult{OK: true, ExitCode: exitOK, Playlists: out})
		return nil
	}
	for _, s := range out {
		fmt.Fprintf(a.stdout, "playlist: %s (%d videos)\n", s.Title, s.VideoCount)
		fmt.Fprintf(a.stdout, "url: %s\n", s.URL)
		fmt.Fprintf(a.stdout, "summary: %s\n", s.Summary)
		fmt.Fprintf(a.stdout, "audience: %s\n", s.TargetAudience)
		fmt.Fprintf(a.stdout, "topics: %s\n", strings.Join(s.KeyTopics, ", "))
		if s.Analysis != nil {
			fmt.Fprintf(a.stdout, "difficulty: %s, duration: %s\n", s.Analysis.DifficultyLevel, s.Analysis.EstimatedDuration)
		}
		fmt.Fprintln(a.stdout)
	}
	return nil
}
