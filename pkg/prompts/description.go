package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// sanitizeInline は文字列をプロンプトに埋め込む前の最低限の正規化を行います。
func sanitizeInline(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}

// firstNonEmpty は正規化後に空でない最初の値を返します。
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := sanitizeInline(v); s != "" {
			return s
		}
	}
	return ""
}

// FrameDescription はタスクのパネル説明文を決めます。
// 各プロンプトは独立したフィールドで、ここでのみフォールバックとして参照し合います。
func FrameDescription(task domain.GridTask) string {
	s := task.Shot
	if task.Type == domain.FrameEnd {
		if desc := firstNonEmpty(s.EndFramePromptZh, s.EndFramePrompt); desc != "" {
			return desc
		}
		return strings.TrimSpace(firstNonEmpty(s.ImagePromptZh, s.ImagePrompt) + " end state")
	}
	if desc := firstNonEmpty(s.ImagePromptZh, s.ImagePrompt, s.VideoPromptZh, s.VideoPrompt); desc != "" {
		return desc
	}
	return fmt.Sprintf("scene %d", s.ID+1)
}

// CountLabel はグリッドのパネル行に付ける人数ラベルです。
func CountLabel(n int) string {
	switch {
	case n <= 0:
		return "(no people)"
	case n == 1:
		return "(1 person)"
	default:
		return fmt.Sprintf("(%d people)", n)
	}
}

// CountConstraint は人物の重複や増殖を抑えるための人数制約文です。
func CountConstraint(n int) string {
	switch {
	case n <= 0:
		return "NO human figures in this frame, empty scene or environment only."
	case n == 1:
		return "EXACTLY ONE person in frame, single character only, do NOT duplicate the character."
	default:
		return fmt.Sprintf("EXACTLY %d distinct people in frame, no more no less, each person appears only ONCE.", n)
	}
}
