package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"google.golang.org/genai"
)

// GeminiClient は Gemini の画像生成モデルを同期的に呼び出す Generator です。
// 結果は常に data URI の ImageURL として返り、タスクIDは使いません。
type GeminiClient struct {
	client *genai.Client
	loader ImageLoader
}

// NewGeminiClient は APIキーから GeminiClient を生成します。loader は参照画像の読み込みに使います。
func NewGeminiClient(ctx context.Context, apiKey string, loader ImageLoader) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", domain.ErrConfig)
	}
	if loader == nil {
		return nil, fmt.Errorf("loader は必須です")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの初期化に失敗しました: %w", err)
	}
	return &GeminiClient{client: client, loader: loader}, nil
}

// Submit はプロンプトと参照画像から画像を生成します。
func (g *GeminiClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("%w: image model is required", domain.ErrConfig)
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for i, ref := range req.ReferenceImages {
		data, mimeType, err := g.loader.Load(ctx, ref)
		if err != nil {
			slog.WarnContext(ctx, "参照画像の読み込みに失敗したためスキップします", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(data, mimeType))
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if req.AspectRatio != "" {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, []*genai.Content{{Parts: parts}}, cfg)
	if err != nil {
		return nil, &ProviderError{Message: fmt.Sprintf("Gemini API error: %v", err)}
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = "image/png"
			}
			uri := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(part.InlineData.Data))
			return &SubmitResult{ImageURL: uri}, nil
		}
	}

	// 画像が返らない場合は審査で止められていることが多い
	for _, cand := range resp.Candidates {
		if cand.FinishReason == genai.FinishReasonSafety || cand.FinishReason == genai.FinishReasonProhibitedContent {
			return nil, fmt.Errorf("%w: Gemini blocked the request (%s)", domain.ErrModeration, cand.FinishReason)
		}
	}
	return &SubmitResult{}, nil
}
