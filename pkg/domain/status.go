package domain

import "fmt"

// FrameStatus は開始フレーム・終了フレーム・動画それぞれの生成状態です。
type FrameStatus string

const (
	StatusIdle       FrameStatus = "idle"
	StatusUploading  FrameStatus = "uploading"
	StatusGenerating FrameStatus = "generating"
	StatusCompleted  FrameStatus = "completed"
	StatusFailed     FrameStatus = "failed"
)

// 許可された遷移の一覧です。completed からはどこへも遷移できません。
var frameTransitions = map[FrameStatus][]FrameStatus{
	StatusIdle:       {StatusUploading, StatusGenerating},
	StatusUploading:  {StatusGenerating, StatusCompleted, StatusFailed},
	StatusGenerating: {StatusGenerating, StatusCompleted, StatusFailed},
	StatusFailed:     {StatusIdle},
}

// Normalize は空文字を idle として扱います。
func (s FrameStatus) Normalize() FrameStatus {
	if s == "" {
		return StatusIdle
	}
	return s
}

// IsTerminal は completed かどうかを返します。
func (s FrameStatus) IsTerminal() bool {
	return s.Normalize() == StatusCompleted
}

// CanTransition は from から to への遷移が許可されているかを返します。
func (s FrameStatus) CanTransition(to FrameStatus) bool {
	for _, next := range frameTransitions[s.Normalize()] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition は遷移を検証し、新しい状態を返します。
func (s FrameStatus) Transition(to FrameStatus) (FrameStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Normalize(), to)
	}
	return to, nil
}

// FrameState はひとつのフレームの状態・進捗・エラーをまとめたものです。
type FrameState struct {
	Status   FrameStatus
	Progress int
	Error    string
}

// Begin は生成開始を記録します。failed からの再実行は手動リトライとして idle を経由させます。
func (f *FrameState) Begin(progress int) error {
	if f.Status.Normalize() == StatusFailed {
		f.Status = StatusIdle
	}
	next, err := f.Status.Transition(StatusGenerating)
	if err != nil {
		return err
	}
	f.Status = next
	f.Progress = clampProgress(progress)
	f.Error = ""
	return nil
}

// Advance は generating 中の進捗を更新します。進捗は後退しません。
func (f *FrameState) Advance(progress int) {
	if f.Status.Normalize() != StatusGenerating {
		return
	}
	p := clampProgress(progress)
	if p >= 100 {
		p = 99
	}
	if p > f.Progress {
		f.Progress = p
	}
}

// Complete は完了を記録します。
func (f *FrameState) Complete() error {
	next, err := f.Status.Transition(StatusCompleted)
	if err != nil {
		return err
	}
	f.Status = next
	f.Progress = 100
	f.Error = ""
	return nil
}

// Fail は失敗を記録します。
func (f *FrameState) Fail(msg string) error {
	next, err := f.Status.Transition(StatusFailed)
	if err != nil {
		return err
	}
	f.Status = next
	f.Progress = 0
	f.Error = msg
	return nil
}

// Reset は failed から idle へ戻す手動リトライです。
func (f *FrameState) Reset() error {
	next, err := f.Status.Transition(StatusIdle)
	if err != nil {
		return err
	}
	f.Status = next
	f.Progress = 0
	f.Error = ""
	return nil
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
