package parser

import (
	"log/slog"
	"net/url"
	"strings"
)

// resolveBaseURL は台本のURLから、相対参照を解決するための基準URLを返すのだ。
// http(s) 以外の場合は nil を返し、相対参照は解決しないのだ。
func resolveBaseURL(scriptURL string) *url.URL {
	if scriptURL == "" {
		return nil
	}
	u, err := url.Parse(scriptURL)
	if err != nil {
		slog.Warn("台本URLを解釈できないため、参照画像の相対パスは解決しないのだ", "url", scriptURL, "error", err)
		return nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		slog.Debug("相対パスの解決に対応していないスキームなのだ", "scheme", u.Scheme)
		return nil
	}
	base := *u
	base.RawQuery = ""
	base.Fragment = ""
	return &base
}

// resolveFullPath は参照画像のパスを絶対URLにするのだ。
// スキーム付きの参照（https, local-image, data）はそのまま返すのだ。
func resolveFullPath(base *url.URL, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || base == nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
