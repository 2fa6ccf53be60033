package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-storyboard-kit/internal/config"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// opts は CLI フラグの値を保持するのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:   "storyboard",
	Short: "分鏡をグリッド画像でまとめて生成するストーリーボードツールなのだ。",
	Long: `複数のショットの開始・終了フレームを1枚のグリッド画像として生成し、
タイルに切り分けて各ショットへ反映するのだ。ショットのグルーピングも行えるのだよ。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- プロジェクト関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.ProjectID, "project", "p", config.DefaultProjectID, "対象プロジェクトのIDなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.StoreDir, "store-dir", config.DefaultStoreDir, "プロジェクトファイルを保存するディレクトリなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.MediaRoot, "media-root", "", "生成画像を保存するメディアルートなのだ（未指定なら MEDIA_ROOT）。")
	rootCmd.PersistentFlags().StringVarP(&opts.CharacterConfig, "char-config", "c", config.DefaultCharactersFile, "キャラクターの参照画像を定義したJSONパスなのだ。")

	// --- 生成設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.Provider, "provider", "", "画像生成プロバイダなのだ（http|gemini）。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", "", "画像生成に使うモデル名なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.AspectRatio, "aspect", "a", "", "フレームのアスペクト比なのだ（16:9, 9:16 など）。")
	rootCmd.PersistentFlags().StringVar(&opts.Resolution, "resolution", "", "生成画像の解像度なのだ（1K|2K|4K）。")
	rootCmd.PersistentFlags().StringVar(&opts.Style, "style", "", "カンマ区切りのスタイルトークンなのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "HTTPリクエストのタイムアウトなのだ。")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
}

// preRunAppE は、コマンド実行前にロガーを設定するのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
	return nil
}

// loadConfig は環境変数を読み込み、CLI フラグを重ねた設定を返すのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
// Ctrl-C を受けたら、処理中のページが終わったところで止まるのだ。
func Execute() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, groupCmd, sliceCmd, shotsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
