package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/provider"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
)

// apply は1枚のフレーム画像を保存し、必要なら画像ホストへ上げて、ショットへ反映します。
// アップロードの失敗は警告に留め、画像そのものは反映します。
func (o *Orchestrator) apply(ctx context.Context, projectID string, task domain.GridTask, src string) error {
	persisted, err := o.deps.Persister.PersistSceneImage(ctx, src, task.Shot.ID, task.Type)
	if err != nil {
		return err
	}

	httpURL := persisted.HTTPURL
	if httpURL == "" && o.deps.Host != nil {
		name := fmt.Sprintf("scene_%d_%s_frame_%d", task.Shot.ID+1, task.Type, o.now().UnixMilli())
		res, err := o.deps.Host.Upload(ctx, src, publisher.UploadOptions{
			Name:       name,
			Expiration: o.cfg.ImageHostTTL,
		})
		if err != nil {
			slog.WarnContext(ctx, "画像ホストへのアップロードに失敗しました", "shot_id", task.Shot.ID, "frame", task.Type, "error", err)
		} else {
			httpURL = res.URL
		}
	}

	return o.deps.Store.UpdateShot(ctx, projectID, task.Shot.ID, func(s *domain.Shot) error {
		if task.Type == domain.FrameEnd {
			s.EndFrameImageURL = persisted.LocalPath
			s.EndFrameHTTPURL = httpURL
			s.EndFrameSource = domain.EndFrameAIGenerated
		} else {
			s.ImageDataURL = persisted.LocalPath
			s.ImageHTTPURL = httpURL
		}
		return s.UpdateFrame(task.Type, completeFrame)
	})
}

// markFailed はフレームを失敗として記録します。審査による拒否はタグ付けします。
func (o *Orchestrator) markFailed(ctx context.Context, projectID string, task domain.GridTask, cause error) {
	msg := provider.TagModeration(cause)
	err := o.deps.Store.UpdateShot(ctx, projectID, task.Shot.ID, func(s *domain.Shot) error {
		return s.UpdateFrame(task.Type, func(f *domain.FrameState) error {
			return failFrame(f, msg)
		})
	})
	if err != nil {
		slog.WarnContext(ctx, "失敗ステータスの記録に失敗しました", "shot_id", task.Shot.ID, "frame", task.Type, "error", err)
	}
}

// completeFrame は generating を経由させてから completed にします。
func completeFrame(f *domain.FrameState) error {
	if !f.Status.Normalize().CanTransition(domain.StatusCompleted) {
		if err := f.Begin(f.Progress); err != nil {
			return err
		}
	}
	return f.Complete()
}

// failFrame は generating を経由させてから failed にします。
func failFrame(f *domain.FrameState, msg string) error {
	if !f.Status.Normalize().CanTransition(domain.StatusFailed) {
		if err := f.Begin(0); err != nil {
			return err
		}
	}
	return f.Fail(msg)
}
