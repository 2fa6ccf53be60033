package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// NegativeGridPrompt はグリッド生成から除外したい要素を定義します。
	NegativeGridPrompt = "Negative constraints: text, watermark, split screen borders, speech bubbles, blur, distortion, bad anatomy."

	gridStructureRule   = "Structure: No borders between panels, no text, no watermarks, no speech bubbles."
	gridConsistencyRule = "Consistency: Maintain consistent character appearance, lighting, and color grading across all panels."
)

// BuildGrid は、複数ショットを rows×cols のストーリーボードグリッドとして描かせるプロンプトを構築します。
// 各行の順序は固定で、呼び出し側はタスクを行優先で並べておく必要があります。
func (pb *ImagePromptBuilder) BuildGrid(tasks []domain.GridTask, rows, cols int, ar domain.AspectRatio) string {
	cells := rows * cols
	parts := make([]string, 0, 10+cells)

	// --- 1. 指示ブロック ---
	parts = append(parts,
		"<instruction>",
		fmt.Sprintf("Generate a clean %dx%d storyboard grid with exactly %d equal-sized panels.", rows, cols, cells),
		fmt.Sprintf("Overall Image Aspect Ratio: %s.", ar),
		fmt.Sprintf("Each individual panel must have a %s (%s) aspect ratio.", ar, ar.Orientation()),
		gridStructureRule,
		gridConsistencyRule,
		"</instruction>",
	)

	// --- 2. レイアウト ---
	parts = append(parts, fmt.Sprintf("Layout: %d rows, %d columns, reading order left-to-right, top-to-bottom.", rows, cols))

	// --- 3. パネルごとの内容 ---
	for i, task := range tasks {
		row, col := i/cols+1, i%cols+1
		parts = append(parts, fmt.Sprintf("Panel [row %d, col %d] %s %s: %s",
			row, col, task.Type.Label(), CountLabel(len(task.Shot.CharacterIDs)), FrameDescription(task)))
	}

	// --- 4. 空きセル ---
	for i := len(tasks); i < cells; i++ {
		row, col := i/cols+1, i%cols+1
		parts = append(parts, fmt.Sprintf("Panel [row %d, col %d]: empty placeholder, solid gray background", row, col))
	}

	// --- 5. スタイルとネガティブ ---
	if len(pb.styleTokens) > 0 {
		parts = append(parts, "Style: "+strings.Join(pb.styleTokens, ", "))
	}
	parts = append(parts, NegativeGridPrompt)

	return strings.Join(parts, "\n")
}
