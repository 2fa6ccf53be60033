package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	libconfig "github.com/shouni/go-storyboard-kit/pkg/config"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultStoreDir       = ".storyboard"
	DefaultMediaRoot      = "media"
	DefaultProjectID      = "default"
	DefaultCharactersFile = ""
	DefaultMode           = "first"
	DefaultStrategy       = "cluster"
	DefaultHTTPTimeout    = 60 * time.Second
	DefaultRateInterval   = libconfig.DefaultRateInterval
	DefaultSliceOutputDir = "output/tiles"
)

// Config はアプリケーション全体の環境設定（APIキーや画像ホスト設定）を保持する構造体なのだ。
type Config struct {
	Provider     string
	APIKey       string
	BaseURL      string
	ImageModel   string
	GeminiAPIKey string
	MediaRoot    string
	StyleTokens  []string

	ImageHost ImageHostConfig

	Options GenerateOptions
}

// ImageHostConfig は S3 互換の画像ホスト（MinIO）への接続情報なのだ。
type ImageHostConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// Enabled は画像ホストが設定済みかを返すのだ。
func (h ImageHostConfig) Enabled() bool {
	return h.Endpoint != "" && h.Bucket != ""
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn(".env の読み込みに失敗したのだ", "error", err)
	}

	cfg := &Config{
		Provider:     envutil.GetEnv("STORYBOARD_PROVIDER", libconfig.ProviderHTTP),
		APIKey:       envutil.GetEnv("STORYBOARD_API_KEY", ""),
		BaseURL:      envutil.GetEnv("STORYBOARD_BASE_URL", ""),
		ImageModel:   envutil.GetEnv("STORYBOARD_IMAGE_MODEL", libconfig.DefaultImageModel),
		GeminiAPIKey: envutil.GetEnv("GEMINI_API_KEY", ""),
		MediaRoot:    envutil.GetEnv("MEDIA_ROOT", DefaultMediaRoot),
		StyleTokens:  splitTokens(envutil.GetEnv("STORYBOARD_STYLE", "")),
		ImageHost: ImageHostConfig{
			Endpoint:  envutil.GetEnv("IMAGE_HOST_ENDPOINT", ""),
			AccessKey: envutil.GetEnv("IMAGE_HOST_ACCESS_KEY", ""),
			SecretKey: envutil.GetEnv("IMAGE_HOST_SECRET_KEY", ""),
			Bucket:    envutil.GetEnv("IMAGE_HOST_BUCKET", ""),
			UseSSL:    parseBool(envutil.GetEnv("IMAGE_HOST_USE_SSL", "true")),
			Prefix:    envutil.GetEnv("IMAGE_HOST_PREFIX", ""),
		},
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// プロジェクト関連
	ProjectID       string // --project
	StoreDir        string // --store-dir
	MediaRoot       string // --media-root
	CharacterConfig string // --char-config

	// 生成関連
	Mode        string        // --mode: first|last|both
	Strategy    string        // --strategy: cluster|minimal|none
	AspectRatio string        // --aspect
	Resolution  string        // --resolution
	ImageModel  string        // --image-model
	Provider    string        // --provider
	Style       string        // --style: カンマ区切りのスタイルトークン
	Interval    time.Duration // --rate-interval: ページ送信の最小間隔

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
	Verbose     bool          // --verbose
}

// ToLibraryConfig は CLI フラグで上書きした上で、ライブラリ用の設定へ変換するのだ。
func (c *Config) ToLibraryConfig() libconfig.Config {
	opts := c.Options
	lc := libconfig.DefaultConfig()

	lc.Provider = firstNonEmpty(opts.Provider, c.Provider)
	lc.ImageModel = firstNonEmpty(opts.ImageModel, c.ImageModel)
	lc.BaseURL = c.BaseURL
	lc.APIKey = c.APIKey
	if lc.Provider == libconfig.ProviderGemini && c.GeminiAPIKey != "" {
		lc.APIKey = c.GeminiAPIKey
	}
	if opts.AspectRatio != "" {
		lc.AspectRatio = opts.AspectRatio
	}
	if opts.Resolution != "" {
		lc.Resolution = opts.Resolution
	}
	lc.StyleTokens = c.StyleTokens
	if tokens := splitTokens(opts.Style); len(tokens) > 0 {
		lc.StyleTokens = tokens
	}
	if opts.Interval >= 0 {
		lc.RateInterval = opts.Interval
	}
	if opts.HTTPTimeout > 0 {
		lc.RequestTimeout = opts.HTTPTimeout
	}
	return lc.Normalize()
}

// ResolvedMediaRoot はフラグ優先でメディアルートを返すのだ。
func (c *Config) ResolvedMediaRoot() string {
	return firstNonEmpty(c.Options.MediaRoot, c.MediaRoot, DefaultMediaRoot)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func splitTokens(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return v
}
