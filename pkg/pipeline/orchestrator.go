package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/director"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/generator"
	"github.com/shouni/go-storyboard-kit/pkg/grid"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/store"
	"golang.org/x/time/rate"
)

// Request はオーケストレーターへの実行指示です。
type Request struct {
	Mode     domain.FrameMode
	Strategy domain.ReferenceStrategy
}

// Composer はグリッド生成と単体生成の両方を担います。
type Composer interface {
	generator.GridComposer
	generator.SingleComposer
}

// Dependencies はオーケストレーターが利用するコンポーネント群です。Host は省略できます。
type Dependencies struct {
	Store      store.Repository
	Composer   Composer
	References *generator.ReferenceCollector
	Loader     publisher.SourceLoader
	Persister  publisher.Persister
	Host       publisher.ImageHost
}

// Orchestrator は、ショット一覧からタスクを組み立て、ページ単位で順番にグリッド生成・分割・反映を行います。
type Orchestrator struct {
	cfg  config.Config
	deps Dependencies

	limiter *rate.Limiter
	now     func() time.Time
}

// NewOrchestrator は Orchestrator を生成します。
func NewOrchestrator(cfg config.Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("store は必須です")
	}
	if deps.Composer == nil {
		return nil, errors.New("composer は必須です")
	}
	if deps.References == nil {
		return nil, errors.New("reference collector は必須です")
	}
	if deps.Loader == nil {
		return nil, errors.New("loader は必須です")
	}
	if deps.Persister == nil {
		return nil, errors.New("persister は必須です")
	}

	cfg = cfg.Normalize()
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateInterval), 1)
	}

	return &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		limiter: limiter,
		now:     time.Now,
	}, nil
}

// Run は未生成フレームをページに分けて順番に生成します。
// ctx はページの境界でのみ確認され、実行中のページは最後まで処理されます。
// キャンセル時は Cancelled=true のレポートと ErrCancelled を、ページ失敗時はそのエラーを返します。
// どちらの場合も、それまでに完了したページの反映は残ります。
func (o *Orchestrator) Run(ctx context.Context, projectID string, req Request) (*Report, error) {
	if req.Mode == "" {
		req.Mode = domain.ModeFirst
	}
	if req.Strategy == "" {
		req.Strategy = domain.StrategyCluster
	}

	if _, err := o.Group(ctx, projectID); err != nil {
		slog.WarnContext(ctx, "自動グループ化に失敗しました", "project_id", projectID, "error", err)
	}

	shots, err := o.deps.Store.ListShots(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ショット一覧の取得に失敗しました: %w", err)
	}

	tasks := BuildTasks(shots, req.Mode)
	pages := domain.Paginate(tasks, o.cfg.MaxPanelsPerPage)
	report := &Report{
		ProjectID:    projectID,
		SkippedShots: countVideoDone(shots),
		TotalTasks:   len(tasks),
		TotalPages:   len(pages),
	}

	logger := slog.With("project_id", projectID, "mode", req.Mode, "strategy", req.Strategy)
	if len(tasks) == 0 {
		logger.Info("生成対象のフレームはありません")
		return report, nil
	}
	logger.Info("グリッド生成を開始します", "tasks", len(tasks), "pages", len(pages))

	for i := range pages {
		page := &pages[i]

		if err := o.waitTurn(ctx); err != nil {
			report.Cancelled = true
			report.AbortedPages = len(pages) - i
			logger.Warn("生成を中断しました", "completed_pages", report.CompletedPages, "aborted_pages", report.AbortedPages)
			return report, fmt.Errorf("%w: %w", domain.ErrCancelled, err)
		}

		// 実行中のページは呼び出し元のキャンセルに関係なく最後まで処理する
		pageCtx := context.WithoutCancel(ctx)
		pr, err := o.runPage(pageCtx, projectID, page, req.Strategy)
		report.Pages = append(report.Pages, pr)
		if err != nil {
			o.failPage(pageCtx, projectID, page, err)
			report.Pages[len(report.Pages)-1].Failed = page.ShotIDs()
			report.Pages[len(report.Pages)-1].Error = err.Error()
			report.AbortedPages = len(pages) - i - 1
			logger.Error("ページの生成に失敗しました", "page", page.Index+1, "error", err)
			return report, fmt.Errorf("page %d/%d: %w", page.Index+1, len(pages), err)
		}
		report.CompletedPages++
	}

	logger.Info("グリッド生成が完了しました", "pages", report.CompletedPages, "applied", report.AppliedCount(), "failed", report.FailedCount())
	return report, nil
}

// waitTurn はページ間の送信間隔を守りつつ、キャンセルを確認します。
func (o *Orchestrator) waitTurn(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.limiter.Wait(ctx)
}

// runPage は参照収集 → 合成 → グリッド記録 → 分割 → 反映を行います。
func (o *Orchestrator) runPage(ctx context.Context, projectID string, page *domain.GridPage, strategy domain.ReferenceStrategy) (PageReport, error) {
	pr := PageReport{Index: page.Index, Tasks: len(page.Tasks)}

	page.References = o.deps.References.CollectAndResolve(ctx, page.Tasks, strategy)

	res, err := o.deps.Composer.Compose(ctx, projectID, *page)
	if err != nil {
		return pr, err
	}
	page.CompositeURL = res.CompositeURL
	pr.Layout = res.Layout.String()
	pr.CompositeURL = res.CompositeURL

	if err := o.deps.Store.SetLastGridImage(ctx, projectID, res.CompositeURL, page.FirstFrameShotIDs()); err != nil {
		slog.WarnContext(ctx, "グリッド画像の記録に失敗しました", "project_id", projectID, "error", err)
	}

	data, _, err := o.deps.Loader.Load(ctx, res.CompositeURL)
	if err != nil {
		return pr, fmt.Errorf("%w: %v", domain.ErrImageLoad, err)
	}
	tiles, err := grid.Slice(data, len(page.Tasks), res.Layout, res.AspectRatio)
	if err != nil {
		return pr, err
	}

	for i, task := range page.Tasks {
		if err := o.apply(ctx, projectID, task, grid.PNGDataURI(tiles[i])); err != nil {
			slog.WarnContext(ctx, "フレームの反映に失敗しました", "shot_id", task.Shot.ID, "frame", task.Type, "error", err)
			o.markFailed(ctx, projectID, task, err)
			pr.Failed = append(pr.Failed, task.Shot.ID)
			continue
		}
		pr.Applied = append(pr.Applied, task.Shot.ID)
	}
	return pr, nil
}

// failPage はページ内の全タスクを失敗として記録します。
func (o *Orchestrator) failPage(ctx context.Context, projectID string, page *domain.GridPage, cause error) {
	for _, task := range page.Tasks {
		o.markFailed(ctx, projectID, task, cause)
	}
}

// Group はプロジェクトのショットを自動グループ化します。
// 初回は全ショットを、2回目以降は未割り当てのショットだけを対象にします。
func (o *Orchestrator) Group(ctx context.Context, projectID string) ([]domain.ShotGroup, error) {
	shots, err := o.deps.Store.ListShots(ctx, projectID)
	if err != nil {
		return nil, err
	}
	existing, err := o.deps.Store.Groups(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(shots) == 0 {
		return existing, nil
	}
	hasGrouped, err := o.deps.Store.HasAutoGrouped(ctx, projectID)
	if err != nil {
		return nil, err
	}

	groups := director.Regroup(existing, shots, hasGrouped)
	if hasGrouped && len(groups) == len(existing) {
		return groups, nil
	}
	if err := o.deps.Store.SetGroups(ctx, projectID, groups); err != nil {
		return nil, err
	}
	if err := o.deps.Store.SetHasAutoGrouped(ctx, projectID, true); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "ショットをグループ化しました", "project_id", projectID, "groups", len(groups), "new", len(groups)-len(existing))
	return groups, nil
}

func countVideoDone(shots []domain.Shot) int {
	n := 0
	for _, s := range shots {
		if s.IsVideoDone() {
			n++
		}
	}
	return n
}
