package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/pipeline"
)

// Generator は GenerateRunner が利用するオーケストレーターの操作なのだ。
type Generator interface {
	Run(ctx context.Context, projectID string, req pipeline.Request) (*pipeline.Report, error)
	GenerateSingle(ctx context.Context, projectID string, shotID int, t domain.FrameType, strategy domain.ReferenceStrategy) (*domain.Shot, error)
}

// GenerateRunner は、グリッド一括生成とショット単体の生成を実行する。
type GenerateRunner struct {
	orch      Generator
	projectID string
}

// NewGenerateRunner は GenerateRunner を生成するのだ。
func NewGenerateRunner(orch Generator, projectID string) *GenerateRunner {
	return &GenerateRunner{orch: orch, projectID: projectID}
}

// RunGrid は未生成のフレームをまとめてグリッド生成するのだ。
// 途中のページで失敗しても、それまでの結果はレポートに残るのだ。
func (r *GenerateRunner) RunGrid(ctx context.Context, mode, strategy string) (*pipeline.Report, error) {
	m, err := domain.ParseFrameMode(mode)
	if err != nil {
		return nil, err
	}
	s, err := domain.ParseReferenceStrategy(strategy)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "グリッド生成を開始するのだ", "project_id", r.projectID, "mode", m, "strategy", s)
	report, err := r.orch.Run(ctx, r.projectID, pipeline.Request{Mode: m, Strategy: s})
	if err != nil {
		return report, fmt.Errorf("グリッド生成に失敗しました: %w", err)
	}
	return report, nil
}

// RunSingle は1ショット1フレームだけを生成するのだ。
func (r *GenerateRunner) RunSingle(ctx context.Context, shotID int, frame, strategy string) (*domain.Shot, error) {
	t, err := domain.ParseFrameType(frame)
	if err != nil {
		return nil, err
	}
	s, err := domain.ParseReferenceStrategy(strategy)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "単体生成を開始するのだ", "project_id", r.projectID, "shot_id", shotID, "frame", t)
	shot, err := r.orch.GenerateSingle(ctx, r.projectID, shotID, t, s)
	if err != nil {
		return nil, fmt.Errorf("ショット %d の生成に失敗しました: %w", shotID, err)
	}
	return shot, nil
}
