package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// DefaultCategory は生成フレームを保存するカテゴリです。
const DefaultCategory = "shots"

// LocalPersister はメディアルート配下のファイルとして画像を保存する Persister 実装です。
type LocalPersister struct {
	root     string
	category string
	loader   SourceLoader
	now      func() time.Time
}

// NewLocalPersister は LocalPersister を生成します。
func NewLocalPersister(root string, loader SourceLoader) (*LocalPersister, error) {
	if root == "" {
		return nil, errors.New("メディアルートは必須です")
	}
	if loader == nil {
		return nil, errors.New("loader は必須です")
	}
	return &LocalPersister{
		root:     root,
		category: DefaultCategory,
		loader:   loader,
		now:      time.Now,
	}, nil
}

// PersistSceneImage は画像を {root}/{category}/{unixms}_{rand6}{ext} に書き出し、local-image:// 参照を返します。
// 元が http(s) URL の場合はそれを HTTPURL として引き継ぎます。
func (p *LocalPersister) PersistSceneImage(ctx context.Context, src string, shotID int, t domain.FrameType) (*Persisted, error) {
	data, mimeType, err := p.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("shot %d %s frame: 画像の取得に失敗しました: %w", shotID, t, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("shot %d %s frame: 画像が空です", shotID, t)
	}

	dir := filepath.Join(p.root, p.category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}

	name := fmt.Sprintf("%d_%s%s", p.now().UnixMilli(), randSuffix(), asset.ExtFromMimeType(mimeType))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("画像の書き込みに失敗しました: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		os.Remove(path)
		return nil, fmt.Errorf("shot %d %s frame: 保存された画像が空です", shotID, t)
	}

	persisted := &Persisted{LocalPath: asset.LocalImageRef(p.category, name)}
	if asset.IsHTTPURL(src) {
		persisted.HTTPURL = src
	}

	slog.DebugContext(ctx, "フレーム画像を保存しました", "shot_id", shotID, "frame", t, "path", path, "bytes", info.Size())
	return persisted, nil
}

func randSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

var _ Persister = (*LocalPersister)(nil)
