package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	progressFloor   = 10
	progressCeiling = 90
	// DefaultPollInterval はタスク状態の問い合わせ間隔です。
	DefaultPollInterval = 2 * time.Second
)

// PollRequest はタスクの完了待ちに必要な情報です。
type PollRequest struct {
	BaseURL     string
	APIKey      string
	TaskID      string
	MaxAttempts int
	// OnProgress は各問い合わせの前に単調増加の進捗（10〜90）で呼ばれます。100 は完了確定時のみ呼び出し側が使います。
	OnProgress func(progress int)
}

// Poller は GET {base}/v1/tasks/{id} を一定間隔で問い合わせます。
type Poller struct {
	httpClient *http.Client
	interval   time.Duration
	now        func() time.Time
}

// NewPoller は Poller を生成します。
func NewPoller(hc *http.Client, interval time.Duration) *Poller {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{httpClient: hc, interval: interval, now: time.Now}
}

// Progress は attempt 回目の進捗見積もりです。
func Progress(attempt, maxAttempts int) int {
	if maxAttempts <= 0 {
		return progressFloor
	}
	return min(progressFloor+attempt*(progressCeiling-progressFloor)/maxAttempts, progressCeiling)
}

// Wait はタスクが終端状態になるまで問い合わせ、成功時は画像URLを返します。
// 終端に達しないまま回数を使い切った場合はタスクIDを含むタイムアウトエラーです。
func (p *Poller) Wait(ctx context.Context, req PollRequest) (string, error) {
	if req.TaskID == "" {
		return "", fmt.Errorf("task id is required")
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	logger := slog.With("task_id", req.TaskID)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if req.OnProgress != nil {
			req.OnProgress(Progress(attempt, maxAttempts))
		}

		body, err := p.query(ctx, req)
		if err != nil {
			return "", err
		}

		status := taskStatus(body)
		logger.Debug("タスク状態を取得しました", slog.Int("attempt", attempt), slog.String("status", status))

		switch {
		case isSuccessStatus(status):
			if u := extractFirst(body, resultURLExtractors); u != "" {
				return u, nil
			}
			return "", newProviderError(http.StatusOK, "no image url in completed task %s", req.TaskID)
		case isFailureStatus(status):
			return "", newProviderError(http.StatusOK, "%s", errorMessage(body, "image generation failed"))
		}

		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.interval):
		}
	}

	logger.Warn("タスクが制限回数内に完了しませんでした", slog.Int("attempts", maxAttempts))
	return "", timeoutError(req.TaskID, maxAttempts)
}

func (p *Poller) query(ctx context.Context, req PollRequest) (map[string]any, error) {
	u, err := url.Parse(strings.TrimRight(req.BaseURL, "/") + "/v1/tasks/" + url.PathEscape(req.TaskID))
	if err != nil {
		return nil, fmt.Errorf("タスクURLの解析に失敗しました: %w", err)
	}
	q := u.Query()
	q.Set("_ts", strconv.FormatInt(p.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("タスク状態の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newProviderError(resp.StatusCode, "task query failed: %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("タスク状態の解析に失敗しました: %w", err)
	}
	return body, nil
}
