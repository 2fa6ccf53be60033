package domain

import (
	"reflect"
	"testing"
)

func TestReferenceStrategy_Cap(t *testing.T) {
	if StrategyCluster.Cap() != 14 || StrategyMinimal.Cap() != 2 || StrategyNone.Cap() != 0 {
		t.Errorf("上限が不正です: %d %d %d", StrategyCluster.Cap(), StrategyMinimal.Cap(), StrategyNone.Cap())
	}

	s, err := ParseReferenceStrategy("")
	if err != nil || s != StrategyCluster {
		t.Errorf("空文字は cluster のはずです: %v %v", s, err)
	}
	if _, err := ParseReferenceStrategy("all"); err == nil {
		t.Error("未知の方針はエラーのはずです")
	}
}

func TestPaginate(t *testing.T) {
	tasks := make([]GridTask, 24)
	for i := range tasks {
		tasks[i] = GridTask{Shot: Shot{ID: i / 2}, Type: FrameFirst}
	}

	pages := Paginate(tasks, MaxTasksPerPage)
	var sizes []int
	for _, p := range pages {
		sizes = append(sizes, len(p.Tasks))
	}
	if !reflect.DeepEqual(sizes, []int{9, 9, 6}) {
		t.Errorf("ページサイズが不正です: %v", sizes)
	}
	if pages[2].Index != 2 {
		t.Errorf("Index が不正です: %d", pages[2].Index)
	}
	if got := pages[0].ShotIDs(); !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4}) {
		t.Errorf("ShotIDs が不正です: %v", got)
	}
}

func TestParseFrameMode(t *testing.T) {
	for in, want := range map[string]FrameMode{"first": ModeFirst, "LAST": ModeLast, "end": ModeLast, " both ": ModeBoth} {
		got, err := ParseFrameMode(in)
		if err != nil || got != want {
			t.Errorf("ParseFrameMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFrameMode("middle"); err == nil {
		t.Error("未知のモードはエラーのはずです")
	}
	if !ModeBoth.IncludesFirst() || !ModeBoth.IncludesEnd() || ModeFirst.IncludesEnd() || ModeLast.IncludesFirst() {
		t.Error("Includes* の判定が不正です")
	}
}

func TestParseFrameType(t *testing.T) {
	for in, want := range map[string]FrameType{"first": FrameFirst, "End": FrameEnd, "last": FrameEnd} {
		got, err := ParseFrameType(in)
		if err != nil || got != want {
			t.Errorf("ParseFrameType(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFrameType(""); err == nil {
		t.Error("空文字はエラーのはずです")
	}
}

func TestShot_FrameAccessors(t *testing.T) {
	s := Shot{ID: 3}
	err := s.UpdateFrame(FrameEnd, func(f *FrameState) error { return f.Begin(10) })
	if err != nil {
		t.Fatalf("UpdateFrame: %v", err)
	}
	if s.EndFrameStatus != StatusGenerating || s.EndFrameProgress != 10 {
		t.Errorf("終了フレームの状態が不正です: %+v", s)
	}
	if s.ImageStatus != "" {
		t.Errorf("開始フレームに影響してはいけません: %s", s.ImageStatus)
	}

	if (Shot{VideoURL: "https://x/v.mp4"}).IsVideoDone() != true {
		t.Error("videoUrl があれば完了扱いのはずです")
	}
	if (Shot{}).EffectiveDuration() != DefaultShotDuration {
		t.Error("未設定の duration は既定値のはずです")
	}
}
