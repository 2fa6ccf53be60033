package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"

	"github.com/google/uuid"
)

const (
	generationsPath = "/v1/images/generations"
	maxErrorBody    = 4 << 10
)

// HTTPClient は OpenAI 互換の画像生成エンドポイントへ送信する Generator です。
type HTTPClient struct {
	httpClient *http.Client
}

// NewHTTPClient は HTTPClient を生成します。hc が nil の場合は timeout 付きのクライアントを作ります。
func NewHTTPClient(hc *http.Client, timeout time.Duration) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{httpClient: hc}
}

type generationBody struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	N           int      `json:"n"`
	AspectRatio string   `json:"aspect_ratio,omitempty"`
	Resolution  string   `json:"resolution,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

// Submit は生成リクエストを送信し、同期結果URLまたは非同期タスクIDを返します。
func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.Model == "" || req.BaseURL == "" || req.APIKey == "" {
		return nil, fmt.Errorf("%w: model, base URL and API key are required", domain.ErrConfig)
	}

	payload, err := json.Marshal(generationBody{
		Model:       req.Model,
		Prompt:      req.Prompt,
		N:           1,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
		ImageURLs:   req.ReferenceImages,
	})
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	endpoint := strings.TrimRight(req.BaseURL, "/") + generationsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	logger := slog.With("request_id", requestID, "model", req.Model)
	logger.Info("画像生成リクエストを送信します",
		slog.Int("prompt_len", len(req.Prompt)),
		slog.Int("references", len(req.ReferenceImages)),
		slog.String("aspect_ratio", req.AspectRatio))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("画像生成リクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newProviderError(resp.StatusCode, "%s", submitErrorMessage(resp.StatusCode, raw))
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("レスポンスの解析に失敗しました: %w", err)
	}

	if u := extractFirst(body, submitURLExtractors); u != "" {
		logger.Info("同期結果を受信しました")
		return &SubmitResult{ImageURL: u}, nil
	}
	if id := extractFirst(body, submitTaskIDExtractors); id != "" {
		logger.Info("非同期タスクを受け付けました", "task_id", id)
		return &SubmitResult{TaskID: id}, nil
	}
	return &SubmitResult{}, nil
}

// submitErrorMessage は {"error":{"message":...}} 形式を優先してエラー文を取り出します。
func submitErrorMessage(status int, raw []byte) string {
	fallback := fmt.Sprintf("image generation request failed: %d", status)
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		if s := strings.TrimSpace(string(raw)); s != "" {
			return fmt.Sprintf("%s %s", fallback, s)
		}
		return fallback
	}
	if s, ok := lookup(body, "error", "message").(string); ok && s != "" {
		return s
	}
	return errorMessage(body, fallback)
}
