package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/grid"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/provider"
)

// 生成開始時にショットへ記録する進捗です。
const initialProgress = 10

// GridResult は1ページ分のグリッド生成結果です。
type GridResult struct {
	Layout       grid.Layout
	AspectRatio  domain.AspectRatio
	CompositeURL string
	Prompt       string
	TaskID       string
}

// GridGenerator は、プロンプト構築・送信・ポーリングを行い、グリッド合成画像を得ます。
type GridGenerator struct {
	cfg    config.Config
	prompt prompts.ImagePrompt
	gen    provider.Generator
	waiter provider.TaskWaiter
	shots  ShotUpdater
}

// NewGridGenerator は GridGenerator を生成します。
func NewGridGenerator(
	cfg config.Config,
	prompt prompts.ImagePrompt,
	gen provider.Generator,
	waiter provider.TaskWaiter,
	shots ShotUpdater,
) (*GridGenerator, error) {
	if prompt == nil {
		return nil, errors.New("prompt builder は必須です")
	}
	if gen == nil {
		return nil, errors.New("generator は必須です")
	}
	if shots == nil {
		return nil, errors.New("shot updater は必須です")
	}
	return &GridGenerator{
		cfg:    cfg.Normalize(),
		prompt: prompt,
		gen:    gen,
		waiter: waiter,
		shots:  shots,
	}, nil
}

// Compose は、ページのタスクを1枚のグリッド画像として生成し、その URL を返します。
// 設定不足の場合はネットワークに触れる前に ErrConfig を返します。
func (g *GridGenerator) Compose(ctx context.Context, projectID string, page domain.GridPage) (*GridResult, error) {
	if err := g.cfg.ValidateProvider(); err != nil {
		return nil, err
	}
	layout, err := grid.LayoutFor(len(page.Tasks))
	if err != nil {
		return nil, err
	}
	ar, err := domain.ParseAspectRatio(g.cfg.AspectRatio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}

	prompt := g.prompt.BuildGrid(page.Tasks, layout.Rows, layout.Cols, ar)
	logger := slog.With("project_id", projectID, "page", page.Index+1, "layout", layout.String(), "tasks", len(page.Tasks), "refs", len(page.References))

	g.markGenerating(ctx, projectID, page.Tasks)

	logger.Info("グリッド画像の生成を開始します")
	start := time.Now()
	res, err := g.gen.Submit(ctx, provider.SubmitRequest{
		Model:           g.cfg.ImageModel,
		Prompt:          prompt,
		APIKey:          g.cfg.APIKey,
		BaseURL:         g.cfg.BaseURL,
		AspectRatio:     ar.String(),
		Resolution:      g.cfg.Resolution,
		ReferenceImages: page.References,
	})
	if err != nil {
		return nil, fmt.Errorf("grid page %d submit failed: %w", page.Index+1, err)
	}

	url, err := g.await(ctx, projectID, page.Tasks, res, g.cfg.GridPollAttempts)
	if err != nil {
		return nil, fmt.Errorf("grid page %d: %w", page.Index+1, err)
	}

	logger.Info("グリッド画像の生成が完了しました", "duration", time.Since(start).Round(time.Millisecond))
	return &GridResult{
		Layout:       layout,
		AspectRatio:  ar,
		CompositeURL: url,
		Prompt:       prompt,
		TaskID:       res.TaskID,
	}, nil
}

// await は同期結果ならそのまま、非同期ならポーリングして画像URLを返します。
func (g *GridGenerator) await(ctx context.Context, projectID string, tasks []domain.GridTask, res *provider.SubmitResult, attempts int) (string, error) {
	switch {
	case res == nil:
		return "", domain.ErrEmptyResult
	case res.ImageURL != "":
		return res.ImageURL, nil
	case res.IsAsync():
		if g.waiter == nil {
			return "", fmt.Errorf("%w: async task %s returned but no poller is configured", domain.ErrConfig, res.TaskID)
		}
		return g.waiter.Wait(ctx, provider.PollRequest{
			BaseURL:     g.cfg.BaseURL,
			APIKey:      g.cfg.APIKey,
			TaskID:      res.TaskID,
			MaxAttempts: attempts,
			OnProgress: func(p int) {
				g.advance(ctx, projectID, tasks, p)
			},
		})
	default:
		return "", domain.ErrEmptyResult
	}
}

// markGenerating はタスク対象のフレームを generating にします。
func (g *GridGenerator) markGenerating(ctx context.Context, projectID string, tasks []domain.GridTask) {
	for _, t := range tasks {
		err := g.shots.UpdateShot(ctx, projectID, t.Shot.ID, func(s *domain.Shot) error {
			return s.UpdateFrame(t.Type, func(f *domain.FrameState) error {
				return f.Begin(initialProgress)
			})
		})
		if err != nil {
			slog.WarnContext(ctx, "生成中ステータスへの更新に失敗しました", "shot_id", t.Shot.ID, "frame", t.Type, "error", err)
		}
	}
}

// advance はポーリング進捗をタスク対象のフレームへ反映します。
func (g *GridGenerator) advance(ctx context.Context, projectID string, tasks []domain.GridTask, progress int) {
	for _, t := range tasks {
		err := g.shots.UpdateShot(ctx, projectID, t.Shot.ID, func(s *domain.Shot) error {
			return s.UpdateFrame(t.Type, func(f *domain.FrameState) error {
				f.Advance(progress)
				return nil
			})
		})
		if err != nil {
			slog.DebugContext(ctx, "進捗の更新に失敗しました", "shot_id", t.Shot.ID, "error", err)
		}
	}
}
