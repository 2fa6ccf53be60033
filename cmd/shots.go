package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/runner"

	"github.com/spf13/cobra"
)

var importReplace bool

// shotsCmd は、プロジェクトのショットを管理するコマンド群なのだ。
var shotsCmd = &cobra.Command{
	Use:   "shots",
	Short: "プロジェクトのショットを管理しますなのだ。",
}

var shotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "ショットとグループの一覧を表示するのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newShotsRunner(cmd)
		if err != nil {
			return err
		}
		snap, err := r.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderShots(snap.Shots))
		if len(snap.Groups) > 0 {
			fmt.Fprintln(out, renderGroups(snap.Groups))
		}
		if snap.Grid != nil {
			fmt.Fprintf(out, "last grid: %s (shots %v)\n", truncate(snap.Grid.URL, 80), snap.Grid.ShotIDs)
		}
		return nil
	},
}

var shotsImportCmd = &cobra.Command{
	Use:   "import <shots.json|board.md|->",
	Short: "JSON 配列または Markdown 台本のショットを取り込むのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newShotsRunner(cmd)
		if err != nil {
			return err
		}

		var src io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("ショットファイル '%s' の読み込みに失敗しました: %w", args[0], err)
			}
			defer f.Close()
			src = f
		}

		n, err := r.Import(cmd.Context(), args[0], src, importReplace)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d shots imported\n", n)
		return nil
	},
}

var shotsResetCmd = &cobra.Command{
	Use:   "reset <shot-id> <first|end>",
	Short: "失敗したフレームを idle に戻すのだ。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseShotID(args[0])
		if err != nil {
			return err
		}
		r, err := newShotsRunner(cmd)
		if err != nil {
			return err
		}
		return r.Reset(cmd.Context(), id, args[1])
	},
}

var shotsDeleteCmd = &cobra.Command{
	Use:   "delete <shot-id>",
	Short: "ショットを削除してIDを詰め直すのだ。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseShotID(args[0])
		if err != nil {
			return err
		}
		r, err := newShotsRunner(cmd)
		if err != nil {
			return err
		}
		return r.Delete(cmd.Context(), id)
	},
}

var shotsPropagateCmd = &cobra.Command{
	Use:   "propagate",
	Short: "グループ内の次ショットの開始フレームを終了フレームとして取り込むのだ。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newShotsRunner(cmd)
		if err != nil {
			return err
		}
		n, err := r.Propagate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d end frames propagated\n", n)
		return nil
	},
}

func init() {
	shotsImportCmd.Flags().BoolVar(&importReplace, "replace", false, "既存のショットとグループを置き換えるのだ。")
	shotsCmd.AddCommand(shotsListCmd, shotsImportCmd, shotsResetCmd, shotsDeleteCmd, shotsPropagateCmd)
}

func newShotsRunner(cmd *cobra.Command) (*runner.ShotsRunner, error) {
	appCtx, err := builder.NewAppContext(cmd.Context(), loadConfig())
	if err != nil {
		return nil, err
	}
	return builder.BuildShotsRunner(appCtx)
}

func parseShotID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("ショットIDには0以上の数値を指定してほしいのだ: %q", s)
	}
	return id, nil
}
