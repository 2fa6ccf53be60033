package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// GenerateSingle は1ショットの指定フレームだけを生成し、グリッドのタイルと同じ手順で反映します。
// 動画が完成したショットは再生成しません。
func (o *Orchestrator) GenerateSingle(ctx context.Context, projectID string, shotID int, t domain.FrameType, strategy domain.ReferenceStrategy) (*domain.Shot, error) {
	shot, err := o.deps.Store.GetShot(ctx, projectID, shotID)
	if err != nil {
		return nil, err
	}
	if shot.IsVideoDone() {
		return nil, fmt.Errorf("%w: shot %d already has a completed video", domain.ErrInvalidTransition, shotID)
	}
	if strategy == "" {
		strategy = domain.StrategyCluster
	}

	task := domain.GridTask{Shot: shot, Type: t}
	refs := o.deps.References.CollectAndResolve(ctx, []domain.GridTask{task}, strategy)

	logger := slog.With("project_id", projectID, "shot_id", shotID, "frame", t, "refs", len(refs))
	logger.Info("単体フレームの生成を開始します")

	url, err := o.deps.Composer.ComposeSingle(ctx, projectID, task, refs)
	if err != nil {
		o.markFailed(ctx, projectID, task, err)
		return nil, err
	}
	if err := o.apply(ctx, projectID, task, url); err != nil {
		o.markFailed(ctx, projectID, task, err)
		return nil, fmt.Errorf("shot %d %s frame: %w", shotID, t, err)
	}

	updated, err := o.deps.Store.GetShot(ctx, projectID, shotID)
	if err != nil {
		return nil, err
	}
	logger.Info("単体フレームの生成が完了しました")
	return &updated, nil
}
