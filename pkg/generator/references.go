package generator

import (
	"context"
	"log/slog"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// resolveConcurrency は参照画像の同時変換数です。
const resolveConcurrency = 4

// ReferenceCollector は、ページ内のタスクから参照画像を集めて整形します。
type ReferenceCollector struct {
	characters domain.CharactersMap
	preparer   ReferencePreparer
}

// NewReferenceCollector は ReferenceCollector を生成します。
func NewReferenceCollector(characters domain.CharactersMap, preparer ReferencePreparer) *ReferenceCollector {
	return &ReferenceCollector{characters: characters, preparer: preparer}
}

// Collect は、タスク順にショットを1度ずつ巡回し、背景参照 → キャラクター参照の順で
// 重複を除いた参照画像を方針の上限まで集めます。
func (rc *ReferenceCollector) Collect(tasks []domain.GridTask, strategy domain.ReferenceStrategy) []string {
	limit := strategy.Cap()
	if limit <= 0 {
		return nil
	}

	refs := make([]string, 0, limit)
	seenRef := make(map[string]struct{})
	seenShot := make(map[int]struct{})

	add := func(ref string) bool {
		if ref == "" {
			return len(refs) < limit
		}
		if _, ok := seenRef[ref]; ok {
			return len(refs) < limit
		}
		seenRef[ref] = struct{}{}
		refs = append(refs, ref)
		return len(refs) < limit
	}

	for _, task := range tasks {
		if _, ok := seenShot[task.Shot.ID]; ok {
			continue
		}
		seenShot[task.Shot.ID] = struct{}{}

		scene := task.Shot.SceneReferenceImage
		if task.Type == domain.FrameEnd && task.Shot.EndFrameSceneReferenceImage != "" {
			scene = task.Shot.EndFrameSceneReferenceImage
		}
		if !add(scene) {
			return refs
		}
		for _, ref := range rc.characters.ReferenceImagesFor(task.Shot.CharacterIDs) {
			if !add(ref) {
				return refs
			}
		}
	}
	return refs
}

// Resolve は、参照画像を並列に変換し、元の順序を保ったまま返します。
// 変換できなかった参照は警告を出して取り除きます。
func (rc *ReferenceCollector) Resolve(ctx context.Context, refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	if len(refs) > domain.MaxReferenceImages {
		refs = refs[:domain.MaxReferenceImages]
	}

	prepared := make([]string, len(refs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(resolveConcurrency)

	for i, ref := range refs {
		eg.Go(func() error {
			v, ok := rc.preparer.PrepareReference(egCtx, ref)
			if !ok {
				slog.WarnContext(egCtx, "参照画像を変換できないため除外します", "ref", truncateRef(ref))
				return nil
			}
			prepared[i] = v
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]string, 0, len(prepared))
	for _, v := range prepared {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// CollectAndResolve は Collect と Resolve をまとめて行います。
func (rc *ReferenceCollector) CollectAndResolve(ctx context.Context, tasks []domain.GridTask, strategy domain.ReferenceStrategy) []string {
	return rc.Resolve(ctx, rc.Collect(tasks, strategy))
}

func truncateRef(ref string) string {
	const maxLen = 64
	if len(ref) <= maxLen {
		return ref
	}
	return ref[:maxLen] + "..."
}
