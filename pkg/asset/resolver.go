package asset

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	// LocalImageScheme はホスト環境が実ファイルに解決するカスタムURIスキームです。
	LocalImageScheme = "local-image://"

	defaultCacheExpiration = 10 * time.Minute
	cacheCleanupInterval   = 15 * time.Minute
	maxDownloadSize        = 32 << 20
)

// localImagePattern は local-image://{category}/{filename} に一致します。
var localImagePattern = regexp.MustCompile(`^local-image://(.+)/(.+)$`)

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ParseLocalImage は local-image:// 参照をカテゴリとファイル名に分解します。ファイル名はURLデコードされます。
func ParseLocalImage(ref string) (category, filename string, ok bool) {
	m := localImagePattern.FindStringSubmatch(ref)
	if m == nil {
		return "", "", false
	}
	name, err := url.PathUnescape(m[2])
	if err != nil {
		name = m[2]
	}
	return m[1], name, true
}

// LocalImageRef は category と filename から local-image:// 参照を組み立てます。
func LocalImageRef(category, filename string) string {
	return LocalImageScheme + category + "/" + filename
}

// MimeTypeFromExt は拡張子から MIME タイプを推定します。不明な場合は image/png です。
func MimeTypeFromExt(path string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "image/png"
}

// ExtFromMimeType は MIME タイプから保存用の拡張子を返します。
func ExtFromMimeType(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// IsHTTPURL は http(s) の URL かどうかを返します。
func IsHTTPURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// IsImageDataURI は data:image/...;base64, 形式かどうかを返します。
func IsImageDataURI(ref string) bool {
	return strings.HasPrefix(ref, "data:image/") && strings.Contains(ref, ";base64,")
}

// DecodeDataURI は data:{mime};base64,{payload} を分解します。
func DecodeDataURI(ref string) ([]byte, string, error) {
	if !strings.HasPrefix(ref, "data:") {
		return nil, "", fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("invalid data URI format")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("data URI のデコードに失敗しました: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("decoded data URI is empty")
	}
	return data, strings.TrimSuffix(header, ";base64"), nil
}

// EncodeDataURI はバイト列を data URI にします。
func EncodeDataURI(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// Resolver は local-image:// / data URI / http(s) の参照を実データに解決します。
// local-image の data URI 変換結果はキャッシュし、同時要求は1回の読み込みにまとめます。
type Resolver struct {
	mediaRoot  string
	httpClient *http.Client
	cache      *cache.Cache
	group      singleflight.Group
}

// NewResolver は mediaRoot を基点に local-image を解決する Resolver を生成します。
func NewResolver(mediaRoot string, httpClient *http.Client) *Resolver {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Resolver{
		mediaRoot:  mediaRoot,
		httpClient: httpClient,
		cache:      cache.New(defaultCacheExpiration, cacheCleanupInterval),
	}
}

// MediaRoot は local-image の基点ディレクトリです。
func (r *Resolver) MediaRoot() string {
	return r.mediaRoot
}

// LocalPath は local-image 参照を実ファイルパスに変換します。
func (r *Resolver) LocalPath(ref string) (string, error) {
	category, filename, ok := ParseLocalImage(ref)
	if !ok {
		return "", fmt.Errorf("not a local-image reference: %q", ref)
	}
	if r.mediaRoot == "" {
		return "", fmt.Errorf("media root is not configured")
	}
	path := filepath.Join(r.mediaRoot, filepath.FromSlash(category), filepath.Base(filename))
	rel, err := filepath.Rel(r.mediaRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("local-image reference escapes media root: %q", ref)
	}
	return path, nil
}

// PrepareReference は生成APIに渡せる形に参照を整えます。
// http(s) と data URI はそのまま、local-image は data URI に変換し、それ以外は使えないので false を返します。
func (r *Resolver) PrepareReference(ctx context.Context, ref string) (string, bool) {
	switch {
	case ref == "":
		return "", false
	case IsHTTPURL(ref), IsImageDataURI(ref):
		return ref, true
	case strings.HasPrefix(ref, LocalImageScheme):
		uri, err := r.localDataURI(ctx, ref)
		if err != nil {
			slog.WarnContext(ctx, "ローカル画像の読み込みに失敗しました", "ref", ref, "error", err)
			return "", false
		}
		return uri, true
	default:
		return "", false
	}
}

// Load は参照の実データと MIME タイプを返します。
func (r *Resolver) Load(ctx context.Context, ref string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return DecodeDataURI(ref)
	case IsHTTPURL(ref):
		return r.download(ctx, ref)
	case strings.HasPrefix(ref, LocalImageScheme):
		uri, err := r.localDataURI(ctx, ref)
		if err != nil {
			return nil, "", err
		}
		return DecodeDataURI(uri)
	default:
		return nil, "", fmt.Errorf("unsupported image reference: %.40q", ref)
	}
}

func (r *Resolver) localDataURI(ctx context.Context, ref string) (string, error) {
	if v, ok := r.cache.Get(ref); ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}

	val, err, _ := r.group.Do(ref, func() (interface{}, error) {
		if v, ok := r.cache.Get(ref); ok {
			return v, nil
		}
		path, err := r.LocalPath(ref)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ローカル画像の読み込みに失敗しました: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("local image is empty: %s", path)
		}
		uri := EncodeDataURI(data, MimeTypeFromExt(path))
		r.cache.Set(ref, uri, cache.DefaultExpiration)
		return uri, nil
	})
	if err != nil {
		return "", err
	}

	uri, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return uri, nil
}

func (r *Resolver) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("画像のダウンロードに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("画像のダウンロードに失敗しました: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, "", fmt.Errorf("画像の読み込みに失敗しました: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("downloaded image is empty")
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return data, mimeType, nil
}
