package domain

import (
	"fmt"
	"strings"
)

// FrameType はグリッド内の1パネルが担当するフレームの種類です。
type FrameType string

const (
	FrameFirst FrameType = "first"
	FrameEnd   FrameType = "end"
)

// Label はプロンプトに埋め込むフレームラベルを返します。
func (t FrameType) Label() string {
	if t == FrameEnd {
		return "[END FRAME]"
	}
	return "[FIRST FRAME]"
}

// ParseFrameType は文字列を FrameType に変換します。"last" は "end" として扱います。
func ParseFrameType(s string) (FrameType, error) {
	switch t := FrameType(strings.ToLower(strings.TrimSpace(s))); t {
	case FrameFirst, FrameEnd:
		return t, nil
	case "last":
		return FrameEnd, nil
	default:
		return "", fmt.Errorf("unknown frame type %q (first|end)", s)
	}
}

// FrameMode はオーケストレーターにどのフレームを生成させるかの指定です。
type FrameMode string

const (
	ModeFirst FrameMode = "first"
	ModeLast  FrameMode = "last"
	ModeBoth  FrameMode = "both"
)

// ParseFrameMode は CLI などから渡された文字列を FrameMode に変換します。
func ParseFrameMode(s string) (FrameMode, error) {
	switch m := FrameMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeFirst, ModeLast, ModeBoth:
		return m, nil
	case "end":
		return ModeLast, nil
	default:
		return "", fmt.Errorf("unknown frame mode %q (first|last|both)", s)
	}
}

// IncludesFirst は開始フレームを対象にするかを返します。
func (m FrameMode) IncludesFirst() bool { return m == ModeFirst || m == ModeBoth }

// IncludesEnd は終了フレームを対象にするかを返します。
func (m FrameMode) IncludesEnd() bool { return m == ModeLast || m == ModeBoth }

// EndFrameSource は終了フレーム画像の出自です。
type EndFrameSource string

const (
	EndFrameUpload         EndFrameSource = "upload"
	EndFrameAIGenerated    EndFrameSource = "ai-generated"
	EndFrameNextScene      EndFrameSource = "next-scene"
	EndFrameVideoExtracted EndFrameSource = "video-extracted"
)

// ShotSize はショットの景別です。
type ShotSize string

const (
	ShotExtremeCloseUp ShotSize = "ecu"
	ShotCloseUp        ShotSize = "cu"
	ShotMediumCloseUp  ShotSize = "mcu"
	ShotMedium         ShotSize = "ms"
	ShotMediumLong     ShotSize = "mls"
	ShotLong           ShotSize = "ls"
	ShotWide           ShotSize = "ws"
)

// Shot はストーリーボードの最小単位（分鏡）です。
// ID はプロジェクト内で 0 から始まる連番で、削除時に詰め直されます。
type Shot struct {
	ID            int    `json:"id"`
	SceneName     string `json:"sceneName,omitempty"`
	SceneLocation string `json:"sceneLocation,omitempty"`

	// 開始フレーム
	ImageDataURL  string      `json:"imageDataUrl,omitempty"`
	ImageHTTPURL  string      `json:"imageHttpUrl,omitempty"`
	Width         int         `json:"width,omitempty"`
	Height        int         `json:"height,omitempty"`
	ImagePrompt   string      `json:"imagePrompt,omitempty"`
	ImagePromptZh string      `json:"imagePromptZh,omitempty"`
	ImageStatus   FrameStatus `json:"imageStatus,omitempty"`
	ImageProgress int         `json:"imageProgress"`
	ImageError    string      `json:"imageError,omitempty"`

	// 終了フレーム
	NeedsEndFrame    bool           `json:"needsEndFrame"`
	EndFrameImageURL string         `json:"endFrameImageUrl,omitempty"`
	EndFrameHTTPURL  string         `json:"endFrameHttpUrl,omitempty"`
	EndFrameSource   EndFrameSource `json:"endFrameSource,omitempty"`
	EndFramePrompt   string         `json:"endFramePrompt,omitempty"`
	EndFramePromptZh string         `json:"endFramePromptZh,omitempty"`
	EndFrameStatus   FrameStatus    `json:"endFrameStatus,omitempty"`
	EndFrameProgress int            `json:"endFrameProgress"`
	EndFrameError    string         `json:"endFrameError,omitempty"`

	// 動画
	VideoPrompt   string      `json:"videoPrompt,omitempty"`
	VideoPromptZh string      `json:"videoPromptZh,omitempty"`
	VideoStatus   FrameStatus `json:"videoStatus,omitempty"`
	VideoProgress int         `json:"videoProgress"`
	VideoURL      string      `json:"videoUrl,omitempty"`
	VideoError    string      `json:"videoError,omitempty"`
	VideoMediaID  string      `json:"videoMediaId,omitempty"`

	// 属性
	CharacterIDs []string `json:"characterIds,omitempty"`
	EmotionTags  []string `json:"emotionTags,omitempty"`
	ShotSize     ShotSize `json:"shotSize,omitempty"`
	Duration     float64  `json:"duration,omitempty"`
	AmbientSound string   `json:"ambientSound,omitempty"`
	SoundEffects []string `json:"soundEffects,omitempty"`

	SceneReferenceImage         string `json:"sceneReferenceImage,omitempty"`
	EndFrameSceneReferenceImage string `json:"endFrameSceneReferenceImage,omitempty"`
}

// IsVideoDone は動画生成が終わったショットかどうかを返します。
// このショットのフレームは二度と再生成しません。
func (s Shot) IsVideoDone() bool {
	return s.VideoStatus == StatusCompleted || s.VideoURL != ""
}

// HasFrame は指定フレームの画像が既にあるかを返します。
func (s Shot) HasFrame(t FrameType) bool {
	if t == FrameEnd {
		return s.EndFrameImageURL != ""
	}
	return s.ImageDataURL != ""
}

// Frame は指定フレームの状態を取り出します。
func (s Shot) Frame(t FrameType) FrameState {
	if t == FrameEnd {
		return FrameState{Status: s.EndFrameStatus.Normalize(), Progress: s.EndFrameProgress, Error: s.EndFrameError}
	}
	return FrameState{Status: s.ImageStatus.Normalize(), Progress: s.ImageProgress, Error: s.ImageError}
}

// SetFrame は指定フレームの状態を書き戻します。
func (s *Shot) SetFrame(t FrameType, f FrameState) {
	if t == FrameEnd {
		s.EndFrameStatus, s.EndFrameProgress, s.EndFrameError = f.Status, f.Progress, f.Error
		return
	}
	s.ImageStatus, s.ImageProgress, s.ImageError = f.Status, f.Progress, f.Error
}

// UpdateFrame は状態を取り出して fn を適用し、書き戻します。
func (s *Shot) UpdateFrame(t FrameType, fn func(*FrameState) error) error {
	f := s.Frame(t)
	if err := fn(&f); err != nil {
		return fmt.Errorf("shot %d %s frame: %w", s.ID, t, err)
	}
	s.SetFrame(t, f)
	return nil
}

// EffectiveDuration はグルーピングで使う秒数です。未設定は 5 秒として扱います。
func (s Shot) EffectiveDuration() float64 {
	if s.Duration <= 0 {
		return DefaultShotDuration
	}
	return s.Duration
}

// DefaultShotDuration は duration 未設定ショットの既定秒数です。
const DefaultShotDuration = 5.0

// Clone はスライスを含めて複製します。
func (s Shot) Clone() Shot {
	c := s
	c.CharacterIDs = cloneStrings(s.CharacterIDs)
	c.EmotionTags = cloneStrings(s.EmotionTags)
	c.SoundEffects = cloneStrings(s.SoundEffects)
	return c
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}
