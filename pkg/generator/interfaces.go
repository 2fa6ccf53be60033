package generator

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ShotUpdater は、生成中の進捗をショットへ書き戻すための最小限の契約です。
type ShotUpdater interface {
	UpdateShot(ctx context.Context, projectID string, id int, fn func(*domain.Shot) error) error
}

// ReferencePreparer は、参照画像をプロバイダに渡せる形式へ変換します。
// 変換できない参照は ok=false で返され、呼び出し側で除外されます。
type ReferencePreparer interface {
	PrepareReference(ctx context.Context, ref string) (string, bool)
}

// GridComposer は、1ページ分のタスクからグリッド合成画像を生成します。
type GridComposer interface {
	Compose(ctx context.Context, projectID string, page domain.GridPage) (*GridResult, error)
}

// SingleComposer は、1ショット1フレーム分の画像を生成します。
type SingleComposer interface {
	ComposeSingle(ctx context.Context, projectID string, task domain.GridTask, refs []string) (string, error)
}
