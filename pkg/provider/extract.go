package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// urlExtractor は型の決まっていないレスポンスから画像URLを1つ取り出します。見つからなければ空文字です。
type urlExtractor func(body map[string]any) string

// resultURLExtractors は完了タスクから画像URLを探す順序です。先に見つかったものを採用します。
var resultURLExtractors = []urlExtractor{
	imagesAt("result", "images"),
	imagesAt("data", "result", "images"),
	imagesAt("images"),
	stringAt("output_url"),
	stringAt("result_url"),
	stringAt("url"),
	stringAt("data", "url"),
	stringAt("result", "url"),
}

// submitURLExtractors は送信レスポンスの同期結果を探す順序です。
var submitURLExtractors = []urlExtractor{
	imagesAt("data"),
	base64At("data"),
	imagesAt("images"),
	stringAt("url"),
	stringAt("image_url"),
	stringAt("data", "url"),
}

// submitTaskIDExtractors は送信レスポンスから非同期タスクIDを探す順序です。
var submitTaskIDExtractors = []urlExtractor{
	stringAt("task_id"),
	stringAt("data", "task_id"),
	stringAt("id"),
	stringAt("data", "id"),
}

func extractFirst(body map[string]any, extractors []urlExtractor) string {
	for _, ex := range extractors {
		if v := ex(body); v != "" {
			return v
		}
	}
	return ""
}

// lookup はネストしたキーを辿ります。途中が map でなければ nil です。
func lookup(body map[string]any, path ...string) any {
	var cur any = body
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// normalizeURL は文字列ならそのまま、配列なら先頭要素を返します。
func normalizeURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return normalizeURL(t[0])
	default:
		return ""
	}
}

func stringAt(path ...string) urlExtractor {
	return func(body map[string]any) string {
		return normalizeURL(lookup(body, path...))
	}
}

// imagesAt は画像記述子の配列から [0].url、なければ [0] 自体を取り出します。
func imagesAt(path ...string) urlExtractor {
	return func(body map[string]any) string {
		arr, ok := lookup(body, path...).([]any)
		if !ok || len(arr) == 0 {
			return ""
		}
		if m, ok := arr[0].(map[string]any); ok {
			return normalizeURL(m["url"])
		}
		return normalizeURL(arr[0])
	}
}

// base64At は OpenAI 互換の b64_json を data URI に変換します。
func base64At(path ...string) urlExtractor {
	return func(body map[string]any) string {
		arr, ok := lookup(body, path...).([]any)
		if !ok || len(arr) == 0 {
			return ""
		}
		m, ok := arr[0].(map[string]any)
		if !ok {
			return ""
		}
		b64, _ := m["b64_json"].(string)
		if b64 == "" {
			return ""
		}
		return "data:image/png;base64," + b64
	}
}

// taskStatus は status、なければ data.status を小文字で返します。
func taskStatus(body map[string]any) string {
	v := lookup(body, "status")
	if v == nil {
		v = lookup(body, "data", "status")
	}
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(fmt.Sprint(v))
}

// errorMessage は error / message / data.error の順でエラー文を取り出します。
func errorMessage(body map[string]any, fallback string) string {
	for _, path := range [][]string{{"error"}, {"message"}, {"data", "error"}} {
		v := lookup(body, path...)
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fallback
}

func isSuccessStatus(s string) bool {
	return s == "completed" || s == "succeeded" || s == "success"
}

func isFailureStatus(s string) bool {
	return s == "failed" || s == "error"
}
