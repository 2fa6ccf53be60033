package prompts

import "github.com/shouni/go-storyboard-kit/pkg/domain"

// ImagePrompt は、画像生成プロンプトを構築する契約です。
type ImagePrompt interface {
	// BuildGrid は、rows×cols のグリッド合成画像用のプロンプトを生成します。
	BuildGrid(tasks []domain.GridTask, rows, cols int, ar domain.AspectRatio) string
	// BuildSingle は、1ショット1フレーム用のプロンプトを生成します。
	BuildSingle(task domain.GridTask, ar domain.AspectRatio) string
}

var _ ImagePrompt = (*ImagePromptBuilder)(nil)
