package provider

import (
	"context"
)

// SubmitRequest は画像生成の送信パラメータです。
type SubmitRequest struct {
	Model           string
	Prompt          string
	APIKey          string
	BaseURL         string
	AspectRatio     string
	Resolution      string
	ReferenceImages []string // http(s) URL または data:image/...;base64, 形式
}

// SubmitResult は送信結果です。同期完了なら ImageURL、非同期なら TaskID のどちらか一方だけが入ります。
type SubmitResult struct {
	ImageURL string
	TaskID   string
}

// IsAsync はポーリングが必要かどうかを返します。
func (r SubmitResult) IsAsync() bool {
	return r.ImageURL == "" && r.TaskID != ""
}

// Generator は画像生成プロバイダへの送信を担う契約です。
type Generator interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
}

// TaskWaiter は非同期タスクの完了待ちを担う契約です。
type TaskWaiter interface {
	Wait(ctx context.Context, req PollRequest) (string, error)
}

// ImageLoader は参照画像の実体（バイト列とMIMEタイプ）を取り出す契約です。
type ImageLoader interface {
	Load(ctx context.Context, ref string) ([]byte, string, error)
}
