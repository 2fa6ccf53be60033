package builder

import (
	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/store"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、画像ホストなど）。
	Options    config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です（プロジェクト、モードなど）。
	Store      store.Repository       // Storeは、ショットとグループを保存するプロジェクトストアです。
	Characters domain.CharactersMap   // Charactersは、参照画像を持つキャラクターライブラリです。
	Manager    *workflow.Manager      // Managerは、グリッド生成パイプラインの部品を束ねたものです。
}

// ProjectID は対象プロジェクトのIDを返します。
func (a *AppContext) ProjectID() string {
	if a.Options.ProjectID == "" {
		return config.DefaultProjectID
	}
	return a.Options.ProjectID
}
