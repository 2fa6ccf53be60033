package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func TestBuildGrid(t *testing.T) {
	pb := NewImagePromptBuilder(nil, []string{"cinematic lighting", " ", "film grain\n"})
	tasks := []domain.GridTask{
		{Shot: domain.Shot{ID: 0, ImagePrompt: "a quiet harbor at dawn"}, Type: domain.FrameFirst},
		{Shot: domain.Shot{ID: 0, ImagePrompt: "a quiet harbor at dawn", CharacterIDs: []string{"a"}}, Type: domain.FrameEnd},
		{Shot: domain.Shot{ID: 1, ImagePromptZh: "港口\n清晨", ImagePrompt: "ignored", CharacterIDs: []string{"a", "b"}}, Type: domain.FrameFirst},
		{Shot: domain.Shot{ID: 2, VideoPrompt: "camera pans left"}, Type: domain.FrameFirst},
		{Shot: domain.Shot{ID: 3}, Type: domain.FrameFirst},
	}

	got := pb.BuildGrid(tasks, 3, 3, domain.Landscape169)
	lines := strings.Split(got, "\n")

	want := []string{
		"<instruction>",
		"Generate a clean 3x3 storyboard grid with exactly 9 equal-sized panels.",
		"Overall Image Aspect Ratio: 16:9.",
		"Each individual panel must have a 16:9 (horizontal landscape) aspect ratio.",
		"Structure: No borders between panels, no text, no watermarks, no speech bubbles.",
		"Consistency: Maintain consistent character appearance, lighting, and color grading across all panels.",
		"</instruction>",
		"Layout: 3 rows, 3 columns, reading order left-to-right, top-to-bottom.",
		"Panel [row 1, col 1] [FIRST FRAME] (no people): a quiet harbor at dawn",
		"Panel [row 1, col 2] [END FRAME] (1 person): a quiet harbor at dawn end state",
		"Panel [row 1, col 3] [FIRST FRAME] (2 people): 港口 清晨",
		"Panel [row 2, col 1] [FIRST FRAME] (no people): camera pans left",
		"Panel [row 2, col 2] [FIRST FRAME] (no people): scene 4",
		"Panel [row 2, col 3]: empty placeholder, solid gray background",
		"Panel [row 3, col 1]: empty placeholder, solid gray background",
		"Panel [row 3, col 2]: empty placeholder, solid gray background",
		"Panel [row 3, col 3]: empty placeholder, solid gray background",
		"Style: cinematic lighting, film grain",
		NegativeGridPrompt,
	}

	if len(lines) != len(want) {
		t.Fatalf("行数が違います: got %d, want %d\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d:\n got  %q\n want %q", i, lines[i], want[i])
		}
	}
}

func TestBuildGrid_PortraitWithoutStyle(t *testing.T) {
	pb := NewImagePromptBuilder(nil, nil)
	got := pb.BuildGrid([]domain.GridTask{{Shot: domain.Shot{ID: 0, ImagePrompt: "x"}, Type: domain.FrameFirst}}, 2, 2, domain.Portrait916)

	if !strings.Contains(got, "9:16 (vertical portrait)") {
		t.Errorf("縦長の指定が含まれていません:\n%s", got)
	}
	if strings.Contains(got, "Style:") {
		t.Errorf("スタイル未指定なら Style 行は出力しないはずです:\n%s", got)
	}
	if n := strings.Count(got, "empty placeholder"); n != 3 {
		t.Errorf("プレースホルダ数 = %d, want 3", n)
	}
}

func TestFrameDescription_EndFramePriority(t *testing.T) {
	task := domain.GridTask{
		Shot: domain.Shot{EndFramePromptZh: " ", EndFramePrompt: "door closed", ImagePrompt: "door open"},
		Type: domain.FrameEnd,
	}
	if got := FrameDescription(task); got != "door closed" {
		t.Errorf("FrameDescription() = %q", got)
	}
}

func TestCountConstraint(t *testing.T) {
	if !strings.HasPrefix(CountConstraint(0), "NO human figures") {
		t.Error("0人の制約文が不正です")
	}
	if !strings.HasPrefix(CountConstraint(1), "EXACTLY ONE person") {
		t.Error("1人の制約文が不正です")
	}
	if !strings.HasPrefix(CountConstraint(3), "EXACTLY 3 distinct people") {
		t.Error("複数人の制約文が不正です")
	}
}

func TestBuildSingle(t *testing.T) {
	chars := domain.CharactersMap{"mika": {ID: "mika", Name: "Mika", VisualCues: []string{"red scarf", "short hair"}}}
	pb := NewImagePromptBuilder(chars, []string{"watercolor"})

	got := pb.BuildSingle(domain.GridTask{
		Shot: domain.Shot{ID: 2, EndFramePrompt: "Mika waves goodbye", CharacterIDs: []string{"mika"}},
		Type: domain.FrameEnd,
	}, domain.Landscape169)

	for _, want := range []string{
		"Mika waves goodbye",
		"END FRAME",
		"Characters: Mika (red scarf, short hair)",
		"EXACTLY ONE person in frame",
		"Aspect ratio: 16:9 (horizontal landscape).",
		"Style: watercolor",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("%q が含まれていません:\n%s", want, got)
		}
	}
}
