package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func errGroupNotFound(id string) error {
	return fmt.Errorf("group %s not found", id)
}

// PropagateEndFrames は、グループ内で終了フレームを必要としながら持たないショットに、
// 次のショットの開始フレームを終了フレームとして設定します。設定した件数を返します。
// 動画が完成済みのショットは変更しません。
func (o *Orchestrator) PropagateEndFrames(ctx context.Context, projectID string) (int, error) {
	groups, err := o.deps.Store.Groups(ctx, projectID)
	if err != nil {
		return 0, err
	}
	shots, err := o.deps.Store.ListShots(ctx, projectID)
	if err != nil {
		return 0, err
	}
	byID := make(map[int]domain.Shot, len(shots))
	for _, s := range shots {
		byID[s.ID] = s
	}

	count := 0
	for _, g := range groups {
		for i := 0; i+1 < len(g.SceneIDs); i++ {
			cur, ok := byID[g.SceneIDs[i]]
			if !ok || !cur.NeedsEndFrame || cur.HasFrame(domain.FrameEnd) || cur.IsVideoDone() {
				continue
			}
			next, ok := byID[g.SceneIDs[i+1]]
			if !ok || !next.HasFrame(domain.FrameFirst) {
				continue
			}

			err := o.deps.Store.UpdateShot(ctx, projectID, cur.ID, func(s *domain.Shot) error {
				s.EndFrameImageURL = next.ImageDataURL
				s.EndFrameHTTPURL = next.ImageHTTPURL
				s.EndFrameSource = domain.EndFrameNextScene
				return s.UpdateFrame(domain.FrameEnd, adoptFrame)
			})
			if err != nil {
				slog.WarnContext(ctx, "終了フレームの引き継ぎに失敗しました", "shot_id", cur.ID, "next_id", next.ID, "error", err)
				continue
			}
			count++
		}
	}
	return count, nil
}

// adoptFrame は既存画像の取り込みとして uploading を経由して completed にします。
func adoptFrame(f *domain.FrameState) error {
	if f.Status.Normalize() == domain.StatusFailed {
		if err := f.Reset(); err != nil {
			return err
		}
	}
	if f.Status.Normalize() == domain.StatusIdle {
		next, err := f.Status.Transition(domain.StatusUploading)
		if err != nil {
			return err
		}
		f.Status = next
	}
	return f.Complete()
}
