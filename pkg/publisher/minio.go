package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
)

// maxPresignExpiry は S3 互換ストレージの署名付き URL の上限です。
const maxPresignExpiry = 7 * 24 * time.Hour

// MinioOptions は MinIO/S3 互換ストレージへの接続設定です。
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// bucketAPI はバケットの確認と作成に使う *minio.Client のメソッドです。
type bucketAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// MinioHost は MinIO/S3 互換ストレージを画像ホストとして使う ImageHost 実装です。
type MinioHost struct {
	client    *minio.Client
	bucketAPI bucketAPI
	bucket    string
	prefix    string
	loader    SourceLoader

	mu          sync.Mutex
	bucketReady bool
}

// NewMinioHost は MinioHost を生成します。loader は http(s) URL の取得に使います。
func NewMinioHost(opts MinioOptions, loader SourceLoader) (*MinioHost, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, errors.New("MinIO の endpoint と bucket は必須です")
	}
	if loader == nil {
		return nil, errors.New("loader は必須です")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIO クライアントの初期化に失敗しました: %w", err)
	}
	return &MinioHost{
		client:    client,
		bucketAPI: client,
		bucket:    opts.Bucket,
		prefix:    strings.Trim(opts.Prefix, "/"),
		loader:    loader,
	}, nil
}

// Upload は画像をアップロードし、有効期限付きの署名 URL を返します。
func (h *MinioHost) Upload(ctx context.Context, src string, opts UploadOptions) (*UploadResult, error) {
	if err := h.ensureBucket(ctx); err != nil {
		return nil, err
	}

	data, mimeType, err := h.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("アップロード元の取得に失敗しました: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("アップロード元の画像が空です")
	}

	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("image_%d", time.Now().UnixMilli())
	}
	objectName := path.Join(h.prefix, name+asset.ExtFromMimeType(mimeType))

	_, err = h.client.PutObject(ctx, h.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIO へのアップロードに失敗しました: %w", err)
	}

	expiry := presignExpiry(opts.Expiration)
	u, err := h.client.PresignedGetObject(ctx, h.bucket, objectName, expiry, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("署名付き URL の生成に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "画像をアップロードしました", "object", objectName, "bytes", len(data), "expiry", expiry)
	return &UploadResult{URL: u.String()}, nil
}

// ensureBucket はバケットの存在を確認し、なければ作成します。
// 成功したときだけ結果を覚え、失敗したら次の呼び出しで再確認します。
func (h *MinioHost) ensureBucket(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bucketReady {
		return nil
	}

	exists, err := h.bucketAPI.BucketExists(ctx, h.bucket)
	if err != nil {
		return fmt.Errorf("バケットの確認に失敗しました: %w", err)
	}
	if !exists {
		if err := h.bucketAPI.MakeBucket(ctx, h.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("バケットの作成に失敗しました: %w", err)
		}
		slog.InfoContext(ctx, "バケットを作成しました", "bucket", h.bucket)
	}
	h.bucketReady = true
	return nil
}

// presignExpiry は要求された有効期限を署名 URL の上限に丸めます。
func presignExpiry(d time.Duration) time.Duration {
	if d <= 0 || d > maxPresignExpiry {
		return maxPresignExpiry
	}
	return d
}

var _ ImageHost = (*MinioHost)(nil)
