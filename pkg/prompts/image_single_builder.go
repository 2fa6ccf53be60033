package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// BuildSingle は、1ショットの開始または終了フレームを単体で生成するためのプロンプトを構築します。
func (pb *ImagePromptBuilder) BuildSingle(task domain.GridTask, ar domain.AspectRatio) string {
	var sb strings.Builder

	sb.WriteString(FrameDescription(task))
	sb.WriteString("\n")

	if task.Type == domain.FrameEnd {
		sb.WriteString("This image is the END FRAME of the shot: show the final state after the action.\n")
	}

	// キャラクターの外見上の特徴
	var cues []string
	for _, id := range task.Shot.CharacterIDs {
		char := pb.characterMap.FindCharacter(id)
		if char == nil || len(char.VisualCues) == 0 {
			continue
		}
		cues = append(cues, fmt.Sprintf("%s (%s)", sanitizeInline(char.Name), sanitizeInline(strings.Join(char.VisualCues, ", "))))
	}
	if len(cues) > 0 {
		sb.WriteString("Characters: " + strings.Join(cues, "; ") + "\n")
	}

	sb.WriteString(CountConstraint(len(task.Shot.CharacterIDs)) + "\n")
	sb.WriteString(fmt.Sprintf("Aspect ratio: %s (%s).\n", ar, ar.Orientation()))

	if len(pb.styleTokens) > 0 {
		sb.WriteString("Style: " + strings.Join(pb.styleTokens, ", ") + "\n")
	}
	sb.WriteString(NegativeGridPrompt)

	return sb.String()
}
