package pipeline

import "github.com/shouni/go-storyboard-kit/pkg/domain"

// BuildTasks は、フレームモードに従って未生成のフレームをタスク列にします。
// 動画が完成したショットは対象外で、各ショットについて開始フレーム → 終了フレームの順に並べます。
func BuildTasks(shots []domain.Shot, mode domain.FrameMode) []domain.GridTask {
	var tasks []domain.GridTask
	for _, s := range shots {
		if s.IsVideoDone() {
			continue
		}
		if mode.IncludesFirst() && !s.HasFrame(domain.FrameFirst) {
			tasks = append(tasks, domain.GridTask{Shot: s, Type: domain.FrameFirst})
		}
		if mode.IncludesEnd() && s.NeedsEndFrame && !s.HasFrame(domain.FrameEnd) {
			tasks = append(tasks, domain.GridTask{Shot: s, Type: domain.FrameEnd})
		}
	}
	return tasks
}
