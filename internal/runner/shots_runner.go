package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/parser"
	"github.com/shouni/go-storyboard-kit/pkg/store"
)

// Director はグルーピングと終了フレーム補完の操作なのだ。
type Director interface {
	Group(ctx context.Context, projectID string) ([]domain.ShotGroup, error)
	PropagateEndFrames(ctx context.Context, projectID string) (int, error)
}

// ShotsRunner は、プロジェクトのショットとグループを管理する。
type ShotsRunner struct {
	store     store.Repository
	director  Director
	projectID string
}

// NewShotsRunner は ShotsRunner を生成するのだ。
func NewShotsRunner(st store.Repository, director Director, projectID string) *ShotsRunner {
	return &ShotsRunner{store: st, director: director, projectID: projectID}
}

// Snapshot は一覧表示用のショットとグループなのだ。
type Snapshot struct {
	Shots  []domain.Shot
	Groups []domain.ShotGroup
	Grid   *store.GridImage
}

// List はショット・グループ・最後のグリッド画像を取得するのだ。
func (r *ShotsRunner) List(ctx context.Context) (*Snapshot, error) {
	shots, err := r.store.ListShots(ctx, r.projectID)
	if err != nil {
		return nil, fmt.Errorf("ショット一覧の取得に失敗しました: %w", err)
	}
	groups, err := r.store.Groups(ctx, r.projectID)
	if err != nil {
		return nil, fmt.Errorf("グループ一覧の取得に失敗しました: %w", err)
	}
	last, err := r.store.LastGridImage(ctx, r.projectID)
	if err != nil {
		return nil, fmt.Errorf("グリッド画像の取得に失敗しました: %w", err)
	}
	return &Snapshot{Shots: shots, Groups: groups, Grid: last}, nil
}

// Import はショットを読み込むのだ。source の拡張子が .md なら Markdown 台本、それ以外は JSON 配列として扱うのだ。
// replace なら既存のショットとグループを置き換え、そうでなければ末尾に追加するのだ。
func (r *ShotsRunner) Import(ctx context.Context, source string, src io.Reader, replace bool) (int, error) {
	shots, err := decodeShots(source, src)
	if err != nil {
		return 0, err
	}

	if replace {
		if err := r.store.ReplaceShots(ctx, r.projectID, shots); err != nil {
			return 0, fmt.Errorf("ショットの置き換えに失敗しました: %w", err)
		}
		slog.InfoContext(ctx, "ショットを置き換えたのだ", "project_id", r.projectID, "count", len(shots))
		return len(shots), nil
	}

	for i, s := range shots {
		if _, err := r.store.AddShot(ctx, r.projectID, s); err != nil {
			return i, fmt.Errorf("ショットの追加に失敗しました: %w", err)
		}
	}
	slog.InfoContext(ctx, "ショットを追加したのだ", "project_id", r.projectID, "count", len(shots))
	return len(shots), nil
}

func decodeShots(source string, src io.Reader) ([]domain.Shot, error) {
	switch strings.ToLower(path.Ext(source)) {
	case ".md", ".markdown":
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("台本の読み込みに失敗しました: %w", err)
		}
		board, err := parser.NewMarkdownParser().Parse(source, string(data))
		if err != nil {
			return nil, fmt.Errorf("台本の解析に失敗しました: %w", err)
		}
		return board.Shots, nil
	default:
		var shots []domain.Shot
		if err := json.NewDecoder(src).Decode(&shots); err != nil {
			return nil, fmt.Errorf("ショット JSON のデコードに失敗しました: %w", err)
		}
		return shots, nil
	}
}

// Reset は失敗したフレームを idle に戻すのだ。
func (r *ShotsRunner) Reset(ctx context.Context, shotID int, frame string) error {
	t, err := domain.ParseFrameType(frame)
	if err != nil {
		return err
	}
	if err := r.store.ResetFrame(ctx, r.projectID, shotID, t); err != nil {
		return fmt.Errorf("ショット %d のリセットに失敗しました: %w", shotID, err)
	}
	return nil
}

// Delete はショットを削除し、IDを詰め直すのだ。
func (r *ShotsRunner) Delete(ctx context.Context, shotID int) error {
	if err := r.store.DeleteShot(ctx, r.projectID, shotID); err != nil {
		return fmt.Errorf("ショット %d の削除に失敗しました: %w", shotID, err)
	}
	return nil
}

// Group は未割り当てのショットをグループにまとめるのだ。
func (r *ShotsRunner) Group(ctx context.Context) ([]domain.ShotGroup, error) {
	groups, err := r.director.Group(ctx, r.projectID)
	if err != nil {
		return nil, fmt.Errorf("グルーピングに失敗しました: %w", err)
	}
	return groups, nil
}

// Propagate はグループ内の次ショットの開始フレームを終了フレームとして取り込むのだ。
func (r *ShotsRunner) Propagate(ctx context.Context) (int, error) {
	n, err := r.director.PropagateEndFrames(ctx, r.projectID)
	if err != nil {
		return 0, fmt.Errorf("終了フレームの補完に失敗しました: %w", err)
	}
	return n, nil
}
