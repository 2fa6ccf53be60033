package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// デフォルト値の定義
const (
	DefaultImageModel         = "gemini-3-pro-image-preview"
	DefaultAspectRatio        = "16:9"
	DefaultResolution         = "2K"
	DefaultPollInterval       = 2 * time.Second
	DefaultGridPollAttempts   = 90
	DefaultSinglePollAttempts = 60
	DefaultRateInterval       = 10 * time.Second
	DefaultRequestTimeout     = 60 * time.Second
	DefaultImageHostTTL       = 15552000 * time.Second // 180日
	DefaultGeminiBaseURL      = "https://generativelanguage.googleapis.com"
)

// 画像生成プロバイダの種類
const (
	ProviderHTTP   = "http"
	ProviderGemini = "gemini"
)

// Config は go-storyboard-kit のパイプラインを動作させるための基本設定です。
type Config struct {
	// --- Provider Settings ---
	Provider   string
	ImageModel string
	BaseURL    string
	APIKey     string

	// --- Generation Settings ---
	AspectRatio  string
	Resolution   string
	StyleTokens  []string
	RateInterval time.Duration

	// --- Layout Settings ---
	MaxPanelsPerPage int

	// --- Polling ---
	PollInterval       time.Duration
	GridPollAttempts   int
	SinglePollAttempts int

	// --- Image Host ---
	ImageHostTTL time.Duration

	// --- Timeout ---
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		Provider:           ProviderHTTP,
		ImageModel:         DefaultImageModel,
		AspectRatio:        DefaultAspectRatio,
		Resolution:         DefaultResolution,
		RateInterval:       DefaultRateInterval,
		MaxPanelsPerPage:   domain.MaxTasksPerPage,
		PollInterval:       DefaultPollInterval,
		GridPollAttempts:   DefaultGridPollAttempts,
		SinglePollAttempts: DefaultSinglePollAttempts,
		ImageHostTTL:       DefaultImageHostTTL,
		RequestTimeout:     DefaultRequestTimeout,
	}
}

// ValidateProvider はネットワーク呼び出しの前に必須項目を確認します。
func (c Config) ValidateProvider() error {
	var missing []string
	if strings.TrimSpace(c.ImageModel) == "" {
		missing = append(missing, "image model")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		missing = append(missing, "base URL")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "API key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: please configure %s", domain.ErrConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Normalize はゼロ値の項目をデフォルトで埋めたコピーを返します。
func (c Config) Normalize() Config {
	d := DefaultConfig()
	if c.Provider == "" {
		c.Provider = d.Provider
	}
	if c.Provider == ProviderGemini && c.BaseURL == "" {
		c.BaseURL = DefaultGeminiBaseURL
	}
	if c.AspectRatio == "" {
		c.AspectRatio = d.AspectRatio
	}
	if c.Resolution == "" {
		c.Resolution = d.Resolution
	}
	if c.MaxPanelsPerPage <= 0 || c.MaxPanelsPerPage > domain.MaxTasksPerPage {
		c.MaxPanelsPerPage = d.MaxPanelsPerPage
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.GridPollAttempts <= 0 {
		c.GridPollAttempts = d.GridPollAttempts
	}
	if c.SinglePollAttempts <= 0 {
		c.SinglePollAttempts = d.SinglePollAttempts
	}
	if c.ImageHostTTL <= 0 {
		c.ImageHostTTL = d.ImageHostTTL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.RateInterval < 0 {
		c.RateInterval = 0
	}
	return c
}
