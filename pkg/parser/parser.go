package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	fieldKeyScene        = "scene"
	fieldKeyLocation     = "location"
	fieldKeyPrompt       = "prompt"
	fieldKeyEndPrompt    = "end_prompt"
	fieldKeyVideoPrompt  = "video_prompt"
	fieldKeyCharacters   = "characters"
	fieldKeyEmotions     = "emotions"
	fieldKeyDuration     = "duration"
	fieldKeySize         = "size"
	fieldKeyEndFrame     = "end_frame"
	fieldKeyReference    = "reference"
	fieldKeyEndReference = "end_reference"
	fieldKeyAmbient      = "ambient"
)

// Storyboard は Markdown 台本から読み取ったショット一覧です。
type Storyboard struct {
	Title string
	Shots []domain.Shot
}

// Parser は解析するためのインターフェースなのだ。
type Parser interface {
	// Parse はスクリプトのURLと内容を受け取り、ショット一覧を返すのだ。
	Parse(scriptURL string, input string) (*Storyboard, error)
}

// MarkdownParser はMarkdown形式のショットリストを解析し、構造化データに変換する構造体です。
//
//	# タイトル
//	## Shot 1
//	- scene: 雨の路地
//	- reference: images/alley.png
//	- prompt: 傘を差した少女が振り返る
//	- characters: hero, cat
//	- duration: 4
type MarkdownParser struct{}

// NewMarkdownParser は Parser を初期化するのだ。
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse は scriptURL を基に参照パスを解決し、Markdown テキストをショット一覧に変換します。
// ショットの ID は付けず、保存時にストアが採番します。
func (p *MarkdownParser) Parse(scriptURL string, input string) (*Storyboard, error) {
	baseURL := resolveBaseURL(scriptURL)

	board := &Storyboard{}
	var current *domain.Shot

	addPreviousShot := func() {
		if current != nil && hasContent(current) {
			board.Shots = append(board.Shots, *current)
		}
	}

	for _, line := range strings.Split(input, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" {
			continue
		}

		if ShotRegex.MatchString(trimmedLine) {
			addPreviousShot()
			current = &domain.Shot{}
			continue
		}

		if m := TitleRegex.FindStringSubmatch(trimmedLine); m != nil {
			board.Title = strings.TrimSpace(m[1])
			continue
		}

		if current == nil {
			continue
		}
		if m := FieldRegex.FindStringSubmatch(trimmedLine); m != nil {
			applyField(current, baseURL, strings.ToLower(m[1]), strings.TrimSpace(m[2]))
		}
	}
	addPreviousShot()

	if len(board.Shots) == 0 {
		return nil, fmt.Errorf("有効なショット情報が見つかりませんでした")
	}
	return board, nil
}

func applyField(s *domain.Shot, baseURL *url.URL, key, val string) {
	switch key {
	case fieldKeyScene:
		s.SceneName = val
	case fieldKeyLocation:
		s.SceneLocation = val
	case fieldKeyPrompt:
		s.ImagePrompt = val
	case fieldKeyEndPrompt:
		s.EndFramePrompt = val
		s.NeedsEndFrame = true
	case fieldKeyVideoPrompt:
		s.VideoPrompt = val
	case fieldKeyCharacters:
		// キャラクターIDはシステム内で一意に扱うため、小文字に正規化する
		s.CharacterIDs = splitList(strings.ToLower(val))
	case fieldKeyEmotions:
		s.EmotionTags = splitList(val)
	case fieldKeyDuration:
		d, err := strconv.ParseFloat(strings.TrimSuffix(val, "s"), 64)
		if err != nil || d <= 0 {
			slog.Warn("duration を解釈できないため既定値を使います", "value", val)
			return
		}
		s.Duration = d
	case fieldKeySize:
		s.ShotSize = domain.ShotSize(strings.ToLower(val))
	case fieldKeyEndFrame:
		v, err := strconv.ParseBool(val)
		if err != nil {
			slog.Warn("end_frame を解釈できません", "value", val)
			return
		}
		s.NeedsEndFrame = v
	case fieldKeyReference:
		s.SceneReferenceImage = resolveFullPath(baseURL, val)
	case fieldKeyEndReference:
		s.EndFrameSceneReferenceImage = resolveFullPath(baseURL, val)
	case fieldKeyAmbient:
		s.AmbientSound = val
	default:
		slog.Debug("Markdown内に未知のフィールドキーが見つかりました", "key", key)
	}
}

// hasContent はショットに有効な情報が含まれているか判定します。
func hasContent(s *domain.Shot) bool {
	return s.SceneName != "" || s.ImagePrompt != "" || s.VideoPrompt != "" || s.SceneReferenceImage != ""
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
