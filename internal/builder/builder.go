package builder

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shouni/go-storyboard-kit/internal/config"
	"github.com/shouni/go-storyboard-kit/internal/runner"
	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/store"
	"github.com/shouni/go-storyboard-kit/pkg/workflow"
)

// NewAppContext は設定から AppContext を組み立てます。
// ストア・キャラクター・画像ホスト・Manager の初期化をまとめて行うのだ。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	opts := cfg.Options
	libCfg := cfg.ToLibraryConfig()
	httpClient := &http.Client{Timeout: libCfg.RequestTimeout}

	storeDir := opts.StoreDir
	if storeDir == "" {
		storeDir = config.DefaultStoreDir
	}
	st, err := store.NewFileStore(storeDir)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトストアの初期化に失敗しました: %w", err)
	}

	chars, err := loadCharacters(opts.CharacterConfig)
	if err != nil {
		return nil, err
	}

	mediaRoot := cfg.ResolvedMediaRoot()
	host, err := initializeImageHost(ctx, cfg.ImageHost, asset.NewResolver(mediaRoot, httpClient))
	if err != nil {
		return nil, err
	}

	mgr, err := workflow.New(ctx, workflow.ManagerArgs{
		Config:        libCfg,
		HTTPClient:    httpClient,
		Store:         st,
		MediaRoot:     mediaRoot,
		CharactersMap: chars,
		ImageHost:     host,
	})
	if err != nil {
		return nil, fmt.Errorf("ワークフローの初期化に失敗しました: %w", err)
	}

	return &AppContext{
		Config:     cfg,
		Options:    opts,
		Store:      st,
		Characters: chars,
		Manager:    mgr,
	}, nil
}

// BuildGenerateRunner はグリッド生成・単体生成を担当する Runner を構築します。
func BuildGenerateRunner(appCtx *AppContext) (*runner.GenerateRunner, error) {
	orch, err := appCtx.Manager.BuildOrchestrator()
	if err != nil {
		return nil, fmt.Errorf("オーケストレーターの構築に失敗しました: %w", err)
	}
	return runner.NewGenerateRunner(orch, appCtx.ProjectID()), nil
}

// BuildShotsRunner はショット管理とグルーピングを担当する Runner を構築します。
func BuildShotsRunner(appCtx *AppContext) (*runner.ShotsRunner, error) {
	orch, err := appCtx.Manager.BuildOrchestrator()
	if err != nil {
		return nil, fmt.Errorf("オーケストレーターの構築に失敗しました: %w", err)
	}
	return runner.NewShotsRunner(appCtx.Store, orch, appCtx.ProjectID()), nil
}

// loadCharacters はキャラクター定義を読み込みます。パス未指定なら空のライブラリを返します。
func loadCharacters(path string) (domain.CharactersMap, error) {
	if path == "" {
		return domain.CharactersMap{}, nil
	}
	chars, err := domain.LoadCharacters(path)
	if err != nil {
		return nil, fmt.Errorf("キャラクター情報の取得に失敗しました: %w", err)
	}
	return chars, nil
}

// initializeImageHost は画像ホストが設定されていれば MinioHost を返します。
// 未設定なら nil を返し、アップロードは行いません。
func initializeImageHost(ctx context.Context, hc config.ImageHostConfig, loader publisher.SourceLoader) (publisher.ImageHost, error) {
	if !hc.Enabled() {
		slog.DebugContext(ctx, "画像ホストが未設定のため、アップロードは行いません")
		return nil, nil
	}
	host, err := publisher.NewMinioHost(publisher.MinioOptions{
		Endpoint:  hc.Endpoint,
		AccessKey: hc.AccessKey,
		SecretKey: hc.SecretKey,
		Bucket:    hc.Bucket,
		UseSSL:    hc.UseSSL,
		Prefix:    hc.Prefix,
	}, loader)
	if err != nil {
		return nil, fmt.Errorf("画像ホストの初期化に失敗しました: %w", err)
	}
	return host, nil
}
