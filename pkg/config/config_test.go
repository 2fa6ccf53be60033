package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func TestConfig_ValidateProvider(t *testing.T) {
	t.Run("全て揃っていればエラーなし", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BaseURL = "https://api.example.com"
		cfg.APIKey = "sk-test"
		if err := cfg.ValidateProvider(); err != nil {
			t.Errorf("予期しないエラー: %v", err)
		}
	})

	t.Run("不足項目を列挙した設定エラーになる", func(t *testing.T) {
		cfg := Config{ImageModel: "m"}
		err := cfg.ValidateProvider()
		if !errors.Is(err, domain.ErrConfig) {
			t.Fatalf("ErrConfig を期待しましたが %v でした", err)
		}
		if !strings.Contains(err.Error(), "base URL") || !strings.Contains(err.Error(), "API key") {
			t.Errorf("メッセージに不足項目が含まれていません: %v", err)
		}
	})
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{MaxPanelsPerPage: 16, RateInterval: -1}.Normalize()
	if cfg.MaxPanelsPerPage != domain.MaxTasksPerPage {
		t.Errorf("1ページの上限は 9 に丸められるはずです: %d", cfg.MaxPanelsPerPage)
	}
	if cfg.PollInterval != DefaultPollInterval || cfg.GridPollAttempts != DefaultGridPollAttempts {
		t.Errorf("ポーリング設定が既定値になっていません: %+v", cfg)
	}
	if cfg.RateInterval != 0 {
		t.Errorf("負のレート間隔は 0 になるはずです: %v", cfg.RateInterval)
	}
}

func TestConfig_Normalize_Gemini(t *testing.T) {
	cfg := Config{Provider: ProviderGemini, APIKey: "key", ImageModel: "m"}.Normalize()
	if cfg.BaseURL != DefaultGeminiBaseURL {
		t.Errorf("gemini の場合は既定のエンドポイントが入るはずです: %q", cfg.BaseURL)
	}
	if err := cfg.ValidateProvider(); err != nil {
		t.Errorf("予期しないエラー: %v", err)
	}
	if got := (Config{}).Normalize().Provider; got != ProviderHTTP {
		t.Errorf("既定のプロバイダは http のはずです: %q", got)
	}
}
