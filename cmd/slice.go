package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/runner"
	libconfig "github.com/shouni/go-storyboard-kit/pkg/config"

	"github.com/spf13/cobra"
)

var sliceOutputDir string

// sliceCmd は、手元のグリッド画像をタイルに切り分けるのだ。
var sliceCmd = &cobra.Command{
	Use:   "slice <grid-image> <count>",
	Short: "グリッド画像をタイルに切り分けますなのだ。",
	Long: `count 枚分のレイアウト（1x1, 2x2, 3x3）でグリッド画像を切り分け、PNG として書き出すのだ。
プロバイダに渡したアスペクト比と異なるセルは中央でクロップするのだよ。`,
	Args: cobra.ExactArgs(2),
	RunE: sliceCommand,
}

func init() {
	sliceCmd.Flags().StringVarP(&sliceOutputDir, "output-dir", "o", config.DefaultSliceOutputDir, "タイルの出力先ディレクトリなのだ。")
}

func sliceCommand(cmd *cobra.Command, args []string) error {
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("count には数値を指定してほしいのだ: %w", err)
	}

	aspect := opts.AspectRatio
	if aspect == "" {
		aspect = libconfig.DefaultAspectRatio
	}
	r, err := runner.NewSliceRunner(aspect, sliceOutputDir)
	if err != nil {
		return err
	}

	paths, err := r.Run(cmd.Context(), args[0], count)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	slog.Debug("切り分けが完了したのだ", "tiles", len(paths))
	return nil
}
