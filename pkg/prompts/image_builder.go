package prompts

import (
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ImagePromptBuilder は、キャラクター情報とスタイルトークンを考慮してAIプロンプトを構築します。
type ImagePromptBuilder struct {
	characterMap domain.CharactersMap
	styleTokens  []string // 例: "cinematic lighting", "film grain"
}

// NewImagePromptBuilder は新しい ImagePromptBuilder を生成します。
func NewImagePromptBuilder(characterMap domain.CharactersMap, styleTokens []string) *ImagePromptBuilder {
	tokens := make([]string, 0, len(styleTokens))
	for _, t := range styleTokens {
		if s := sanitizeInline(t); s != "" {
			tokens = append(tokens, s)
		}
	}
	return &ImagePromptBuilder{
		characterMap: characterMap,
		styleTokens:  tokens,
	}
}
