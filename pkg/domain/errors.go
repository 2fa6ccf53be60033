package domain

import "errors"

// パイプライン全体で共有するエラー分類です。呼び出し側は errors.Is で判定します。
var (
	// ErrConfig はモデル・ベースURL・APIキーなどの設定不足です。ネットワーク呼び出し前に返ります。
	ErrConfig = errors.New("configuration error")
	// ErrProvider はプロバイダが失敗を報告した、または非2xxを返した場合です。
	ErrProvider = errors.New("provider error")
	// ErrTimeout はポーリング回数を使い切った場合です。
	ErrTimeout = errors.New("generation timed out")
	// ErrModeration はコンテンツ審査による拒否です。
	ErrModeration = errors.New("content moderation")
	// ErrImageLoad は合成画像のデコードに失敗した場合です。
	ErrImageLoad = errors.New("image load failed")
	// ErrCancelled はページ境界でキャンセルが検出された場合です。
	ErrCancelled = errors.New("generation cancelled")
	// ErrInvalidTransition はフレーム状態の不正な遷移です。
	ErrInvalidTransition = errors.New("invalid frame status transition")
	// ErrShotNotFound は指定IDのショットが存在しない場合です。
	ErrShotNotFound = errors.New("shot not found")
	// ErrEmptyResult は送信結果に画像URLもタスクIDも含まれない場合です。
	ErrEmptyResult = errors.New("no image url or task id in response")
)
