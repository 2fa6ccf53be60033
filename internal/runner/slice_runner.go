package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/grid"
)

// SliceRunner は、手元のグリッド画像をタイルに切り分けて保存する。
type SliceRunner struct {
	aspect domain.AspectRatio
	outDir string
}

// NewSliceRunner は SliceRunner を生成するのだ。
func NewSliceRunner(aspect, outDir string) (*SliceRunner, error) {
	ar, err := domain.ParseAspectRatio(aspect)
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		return nil, errors.New("出力ディレクトリは必須です")
	}
	return &SliceRunner{aspect: ar, outDir: outDir}, nil
}

// Run は path のグリッド画像を count 枚のタイルに切り分け、書き出したパスを返すのだ。
func (r *SliceRunner) Run(ctx context.Context, path string, count int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("グリッド画像 '%s' の読み込みに失敗しました: %w", path, err)
	}
	layout, err := grid.LayoutFor(count)
	if err != nil {
		return nil, err
	}
	tiles, err := grid.Slice(data, count, layout, r.aspect)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	paths := make([]string, 0, len(tiles))
	for i, tile := range tiles {
		p := filepath.Join(r.outDir, fmt.Sprintf("tile_%02d.png", i+1))
		if err := os.WriteFile(p, tile, 0o644); err != nil {
			return paths, fmt.Errorf("タイル %d の書き込みに失敗しました: %w", i+1, err)
		}
		paths = append(paths, p)
	}
	slog.InfoContext(ctx, "グリッド画像を切り分けたのだ", "layout", layout.String(), "tiles", len(paths), "dir", r.outDir)
	return paths, nil
}
