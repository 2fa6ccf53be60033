package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/spf13/cobra"
)

var (
	singleShotID int
	singleFrame  string
)

// generateCmd は、未生成のフレームをグリッド画像でまとめて生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "未生成のフレームをグリッド画像でまとめて生成しますなのだ。",
	Long: `プロジェクトのショットから未生成のフレームを集め、最大9枚ずつ1枚のグリッド画像として生成するのだ。
生成した画像はタイルに切り分けて各ショットへ反映するのだよ。
--shot を指定すると、そのショットの1フレームだけを単体で生成するのだ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.Mode, "mode", "m", config.DefaultMode, "生成するフレームなのだ（first|last|both）。")
	generateCmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", config.DefaultStrategy, "参照画像の添付方針なのだ（cluster|minimal|none）。")
	generateCmd.Flags().DurationVar(&opts.Interval, "rate-interval", config.DefaultRateInterval, "ページ送信の最小間隔なのだ（0で無制限）。")
	generateCmd.Flags().IntVar(&singleShotID, "shot", -1, "単体生成するショットIDなのだ。")
	generateCmd.Flags().StringVar(&singleFrame, "frame", string(domain.FrameFirst), "単体生成するフレームなのだ（first|end）。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	r, err := builder.BuildGenerateRunner(appCtx)
	if err != nil {
		return err
	}

	if singleShotID >= 0 {
		shot, err := r.RunSingle(ctx, singleShotID, singleFrame, opts.Strategy)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderShots([]domain.Shot{*shot}))
		return nil
	}

	slog.Info("グリッド生成パイプラインを起動するのだ！",
		"project", appCtx.ProjectID(),
		"mode", opts.Mode,
		"strategy", opts.Strategy,
		"rate_interval", opts.Interval)

	report, err := r.RunGrid(ctx, opts.Mode, opts.Strategy)
	if report != nil {
		fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
	}
	if err != nil {
		return err
	}

	slog.Info("すべての生成工程が完了したのだ！", "applied", report.AppliedCount(), "failed", report.FailedCount())
	return nil
}
