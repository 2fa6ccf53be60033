package publisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestLocalPersister_PersistSceneImage(t *testing.T) {
	root := t.TempDir()
	resolver := asset.NewResolver(root, nil)
	p, err := NewLocalPersister(root, resolver)
	if err != nil {
		t.Fatal(err)
	}
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }

	t.Run("data URI はローカルに保存される", func(t *testing.T) {
		got, err := p.PersistSceneImage(context.Background(), asset.EncodeDataURI(pngBytes, "image/png"), 0, domain.FrameFirst)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if !regexp.MustCompile(`^local-image://shots/1700000000000_[0-9a-f]{6}\.png$`).MatchString(got.LocalPath) {
			t.Errorf("保存パスの形式が一致しません: %s", got.LocalPath)
		}
		if got.HTTPURL != "" {
			t.Errorf("data URI なら HTTPURL は空のはずです: %s", got.HTTPURL)
		}

		path, err := resolver.LocalPath(got.LocalPath)
		if err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil || len(data) != len(pngBytes) {
			t.Errorf("ファイル内容が一致しません: %v", err)
		}
	})

	t.Run("http URL は HTTPURL として引き継がれる", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
		}))
		defer srv.Close()

		got, err := p.PersistSceneImage(context.Background(), srv.URL+"/a.jpg", 3, domain.FrameEnd)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got.HTTPURL != srv.URL+"/a.jpg" {
			t.Errorf("HTTPURL が一致しません: %s", got.HTTPURL)
		}
		if !strings.HasSuffix(got.LocalPath, ".jpg") {
			t.Errorf("拡張子は MIME タイプから決まるはずです: %s", got.LocalPath)
		}
	})

	t.Run("取得できない画像はエラー", func(t *testing.T) {
		if _, err := p.PersistSceneImage(context.Background(), "ftp://nope", 0, domain.FrameFirst); err == nil {
			t.Error("エラーを期待しました")
		}
		entries, _ := os.ReadDir(filepath.Join(root, DefaultCategory))
		for _, e := range entries {
			if info, _ := e.Info(); info != nil && info.Size() == 0 {
				t.Errorf("空のファイルが残っています: %s", e.Name())
			}
		}
	})
}

func TestPresignExpiry(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, maxPresignExpiry},
		{time.Hour, time.Hour},
		{15552000 * time.Second, maxPresignExpiry},
	}
	for _, tt := range tests {
		if got := presignExpiry(tt.in); got != tt.want {
			t.Errorf("presignExpiry(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewMinioHost_Validation(t *testing.T) {
	if _, err := NewMinioHost(MinioOptions{Endpoint: "localhost:9000"}, asset.NewResolver(t.TempDir(), nil)); err == nil {
		t.Error("bucket が空ならエラーになるはずです")
	}
	h, err := NewMinioHost(MinioOptions{Endpoint: "localhost:9000", Bucket: "frames", Prefix: "/storyboard/"}, asset.NewResolver(t.TempDir(), nil))
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if h.prefix != "storyboard" {
		t.Errorf("prefix の前後のスラッシュは除去されるはずです: %q", h.prefix)
	}
}
