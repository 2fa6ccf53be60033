package provider

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ModerationPrefix はコンテンツ審査で弾かれたことを UI に伝えるためのエラー文の接頭辞です。
const ModerationPrefix = "MODERATION_SKIPPED:"

// 単独の sensitive や violation は "case-sensitive" や "rate limit violation" に当たるため、内容を指す語と組で判定する
var moderationPattern = regexp.MustCompile(`(?i)moderation|content[ _-]?policy|safety (system|filter|check)|sensitive (content|material|image|prompt)|inappropriate|prohibited|nsfw|(policy|guideline|content|usage) violation|violates? (our |the )?(content |usage |safety )?(polic(y|ies)|guidelines)|审核|违规|敏感|不当`)

// IsModerationError はエラー文がコンテンツ審査による拒否を示しているかを判定します。
func IsModerationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrModeration) {
		return true
	}
	return moderationPattern.MatchString(err.Error())
}

// TagModeration は審査エラーであれば接頭辞を付けたメッセージを返します。
func TagModeration(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if IsModerationError(err) && !strings.HasPrefix(msg, ModerationPrefix) {
		return ModerationPrefix + msg
	}
	return msg
}

// IsModerationSkipped は保存済みのエラー文が審査スキップかを判定します。
func IsModerationSkipped(msg string) bool {
	return strings.HasPrefix(msg, ModerationPrefix)
}
