package publisher

import (
	"context"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// UploadOptions は画像ホストへのアップロード設定です。
type UploadOptions struct {
	Name       string
	Expiration time.Duration
}

// UploadResult はアップロード後に外部から参照できる URL です。
type UploadResult struct {
	URL string
}

// ImageHost は画像を外部公開ホストへアップロードする契約です。
// src は http(s) URL か data:image/...;base64, 形式です。
type ImageHost interface {
	Upload(ctx context.Context, src string, opts UploadOptions) (*UploadResult, error)
}

// Persisted は永続化された画像の参照です。HTTPURL は外部から参照できる場合のみ入ります。
type Persisted struct {
	LocalPath string
	HTTPURL   string
}

// Persister は生成画像をメディア領域へ保存する契約です。
type Persister interface {
	PersistSceneImage(ctx context.Context, src string, shotID int, t domain.FrameType) (*Persisted, error)
}

// SourceLoader は URL / data URI / local-image:// からバイト列を取り出します。
type SourceLoader interface {
	Load(ctx context.Context, ref string) ([]byte, string, error)
}
