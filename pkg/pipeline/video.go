package pipeline

import (
	"context"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/provider"
)

// RecordVideoFailure はショットの動画生成失敗を記録します。審査による拒否はタグ付けします。
func (o *Orchestrator) RecordVideoFailure(ctx context.Context, projectID string, shotID int, cause error) error {
	msg := provider.TagModeration(cause)
	return o.deps.Store.UpdateShot(ctx, projectID, shotID, func(s *domain.Shot) error {
		s.VideoStatus = domain.StatusFailed
		s.VideoProgress = 0
		s.VideoError = msg
		return nil
	})
}

// RecordGroupVideoFailure はグループの動画生成失敗を記録します。
func (o *Orchestrator) RecordGroupVideoFailure(ctx context.Context, projectID, groupID string, cause error) error {
	groups, err := o.deps.Store.Groups(ctx, projectID)
	if err != nil {
		return err
	}
	msg := provider.TagModeration(cause)
	for i := range groups {
		if groups[i].ID != groupID {
			continue
		}
		groups[i].VideoStatus = domain.StatusFailed
		groups[i].VideoProgress = 0
		groups[i].VideoError = msg
		return o.deps.Store.SetGroups(ctx, projectID, groups)
	}
	return errGroupNotFound(groupID)
}
