package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shouni/go-storyboard-kit/pkg/asset"
	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/pipeline"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/provider"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/store"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。
// ImagePrompt / Generator / Waiter / ImageHost は省略でき、省略時は Config から構築します。
type ManagerArgs struct {
	Config        config.Config
	HTTPClient    *http.Client
	Store         store.Repository
	MediaRoot     string
	CharactersMap domain.CharactersMap

	ImagePrompt prompts.ImagePrompt
	Generator   provider.Generator
	Waiter      provider.TaskWaiter
	ImageHost   publisher.ImageHost
}

// Manager は、ストーリーボード生成パイプラインの各部品を構築・保持します。
type Manager struct {
	cfg        config.Config
	store      store.Repository
	resolver   *asset.Resolver
	persister  *publisher.LocalPersister
	references *generator.ReferenceCollector
	composer   *generator.GridGenerator
	host       publisher.ImageHost
}

// New は、設定と依存関係を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	if args.HTTPClient == nil {
		return nil, errors.New("httpClient は必須です")
	}
	if args.Store == nil {
		return nil, errors.New("store は必須です")
	}
	if args.MediaRoot == "" {
		return nil, errors.New("MediaRoot は必須です")
	}
	if args.CharactersMap == nil {
		args.CharactersMap = domain.CharactersMap{}
	}

	cfg := args.Config.Normalize()
	resolver := asset.NewResolver(args.MediaRoot, args.HTTPClient)

	persister, err := publisher.NewLocalPersister(args.MediaRoot, resolver)
	if err != nil {
		return nil, fmt.Errorf("Persister の初期化に失敗しました: %w", err)
	}

	gen, err := initializeGenerator(ctx, cfg, args.Generator, args.HTTPClient, resolver)
	if err != nil {
		return nil, err
	}

	waiter := args.Waiter
	if waiter == nil {
		waiter = provider.NewPoller(args.HTTPClient, cfg.PollInterval)
	}

	composer, err := generator.NewGridGenerator(
		cfg,
		initializeImagePrompt(args.ImagePrompt, args.CharactersMap, cfg.StyleTokens),
		gen,
		waiter,
		args.Store,
	)
	if err != nil {
		return nil, fmt.Errorf("グリッド生成エンジンの初期化に失敗しました: %w", err)
	}

	return &Manager{
		cfg:        cfg,
		store:      args.Store,
		resolver:   resolver,
		persister:  persister,
		references: generator.NewReferenceCollector(args.CharactersMap, resolver),
		composer:   composer,
		host:       args.ImageHost,
	}, nil
}

// BuildOrchestrator はグリッド生成のオーケストレーターを作成します。
func (m *Manager) BuildOrchestrator() (*pipeline.Orchestrator, error) {
	return pipeline.NewOrchestrator(m.cfg, pipeline.Dependencies{
		Store:      m.store,
		Composer:   m.composer,
		References: m.references,
		Loader:     m.resolver,
		Persister:  m.persister,
		Host:       m.host,
	})
}

// Resolver は参照画像の解決に使う Resolver を返します。
func (m *Manager) Resolver() *asset.Resolver {
	return m.resolver
}

// Config は正規化済みの設定を返します。
func (m *Manager) Config() config.Config {
	return m.cfg
}

// initializeGenerator は画像生成プロバイダを初期化します。
// 引数として既存のプロバイダが渡された場合はそれを返します。
func initializeGenerator(ctx context.Context, cfg config.Config, gen provider.Generator, hc *http.Client, loader provider.ImageLoader) (provider.Generator, error) {
	if gen != nil {
		return gen, nil
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := provider.NewGeminiClient(ctx, cfg.APIKey, loader)
		if err != nil {
			return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
		}
		return g, nil
	case config.ProviderHTTP:
		return provider.NewHTTPClient(hc, cfg.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q (http|gemini)", domain.ErrConfig, cfg.Provider)
	}
}

// initializeImagePrompt は ImagePromptBuilder を初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializeImagePrompt(imagePrompt prompts.ImagePrompt, charMap domain.CharactersMap, styleTokens []string) prompts.ImagePrompt {
	if imagePrompt != nil {
		return imagePrompt
	}
	return prompts.NewImagePromptBuilder(charMap, styleTokens)
}
