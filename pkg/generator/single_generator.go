package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/provider"
)

// ComposeSingle は1ショット1フレームの画像を生成します。
// 参照画像付きの送信が URL もタスクIDも返さなかった場合は、参照画像なしで1度だけ再送します。
func (g *GridGenerator) ComposeSingle(ctx context.Context, projectID string, task domain.GridTask, refs []string) (string, error) {
	if err := g.cfg.ValidateProvider(); err != nil {
		return "", err
	}
	ar, err := domain.ParseAspectRatio(g.cfg.AspectRatio)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}

	tasks := []domain.GridTask{task}
	g.markGenerating(ctx, projectID, tasks)

	req := provider.SubmitRequest{
		Model:           g.cfg.ImageModel,
		Prompt:          g.prompt.BuildSingle(task, ar),
		APIKey:          g.cfg.APIKey,
		BaseURL:         g.cfg.BaseURL,
		AspectRatio:     ar.String(),
		Resolution:      g.cfg.Resolution,
		ReferenceImages: refs,
	}

	res, err := g.gen.Submit(ctx, req)
	if err != nil {
		return "", fmt.Errorf("shot %d %s frame submit failed: %w", task.Shot.ID, task.Type, err)
	}

	url, err := g.await(ctx, projectID, tasks, res, g.cfg.SinglePollAttempts)
	if errors.Is(err, domain.ErrEmptyResult) && len(refs) > 0 {
		slog.WarnContext(ctx, "空のレスポンスのため参照画像なしで再送します", "shot_id", task.Shot.ID, "frame", task.Type, "refs", len(refs))
		req.ReferenceImages = nil
		res, err = g.gen.Submit(ctx, req)
		if err != nil {
			return "", fmt.Errorf("shot %d %s frame retry failed: %w", task.Shot.ID, task.Type, err)
		}
		url, err = g.await(ctx, projectID, tasks, res, g.cfg.SinglePollAttempts)
	}
	if err != nil {
		return "", fmt.Errorf("shot %d %s frame: %w", task.Shot.ID, task.Type, err)
	}
	return url, nil
}
