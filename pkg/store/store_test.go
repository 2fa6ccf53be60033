package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

func eachStore(t *testing.T, fn func(t *testing.T, r Repository)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("file", func(t *testing.T) {
		fs, err := NewFileStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		fn(t, fs)
	})
}

func seed(t *testing.T, r Repository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := r.AddShot(context.Background(), "p1", domain.Shot{ImagePrompt: string(rune('a' + i)), Duration: float64(i + 1)}); err != nil {
			t.Fatal(err)
		}
	}
}

func shotIDs(shots []domain.Shot) []int {
	ids := make([]int, len(shots))
	for i, s := range shots {
		ids[i] = s.ID
	}
	return ids
}

func TestRepository_AddAndUpdate(t *testing.T) {
	eachStore(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		seed(t, r, 3)

		shots, err := r.ListShots(ctx, "p1")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(shotIDs(shots), []int{0, 1, 2}) {
			t.Fatalf("連番のIDが振られるはずです: %v", shotIDs(shots))
		}
		if shots[0].ImageStatus != domain.StatusIdle {
			t.Errorf("初期状態は idle のはずです: %q", shots[0].ImageStatus)
		}

		err = r.UpdateShot(ctx, "p1", 1, func(s *domain.Shot) error {
			s.ImageDataURL = "local-image://shots/a.png"
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		got, _ := r.GetShot(ctx, "p1", 1)
		if got.ImageDataURL != "local-image://shots/a.png" {
			t.Errorf("更新が反映されていません: %+v", got)
		}

		t.Run("fn がエラーなら変更されない", func(t *testing.T) {
			boom := errors.New("boom")
			err := r.UpdateShot(ctx, "p1", 2, func(s *domain.Shot) error {
				s.ImagePrompt = "changed"
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("エラーが伝搬していません: %v", err)
			}
			got, _ := r.GetShot(ctx, "p1", 2)
			if got.ImagePrompt == "changed" {
				t.Errorf("失敗した更新が反映されています")
			}
		})

		t.Run("存在しないショット", func(t *testing.T) {
			if _, err := r.GetShot(ctx, "p1", 42); !errors.Is(err, domain.ErrShotNotFound) {
				t.Errorf("ErrShotNotFound を期待しましたが %v でした", err)
			}
		})
	})
}

func TestRepository_DeleteShot(t *testing.T) {
	eachStore(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		seed(t, r, 5)
		groups := []domain.ShotGroup{
			{ID: "g1", SceneIDs: []int{0, 1}},
			{ID: "g2", SceneIDs: []int{2}},
			{ID: "g3", SceneIDs: []int{3, 4}},
		}
		if err := r.SetGroups(ctx, "p1", groups); err != nil {
			t.Fatal(err)
		}

		if err := r.DeleteShot(ctx, "p1", 2); err != nil {
			t.Fatal(err)
		}

		shots, _ := r.ListShots(ctx, "p1")
		if !reflect.DeepEqual(shotIDs(shots), []int{0, 1, 2, 3}) {
			t.Errorf("IDは詰め直されるはずです: %v", shotIDs(shots))
		}
		if shots[2].ImagePrompt != "d" {
			t.Errorf("後続のショットが前に詰められるはずです: %q", shots[2].ImagePrompt)
		}

		got, _ := r.Groups(ctx, "p1")
		if len(got) != 2 {
			t.Fatalf("空になったグループは削除されるはずです: %+v", got)
		}
		if got[1].ID != "g3" || !reflect.DeepEqual(got[1].SceneIDs, []int{2, 3}) {
			t.Errorf("後ろのIDがずれるはずです: %+v", got[1])
		}
		// d(4秒) + e(5秒)
		if got[1].TotalDuration != 9 {
			t.Errorf("合計秒数が再計算されるはずです: %v", got[1].TotalDuration)
		}
	})
}

func TestRepository_ResetFrame(t *testing.T) {
	eachStore(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		seed(t, r, 1)
		_ = r.UpdateShot(ctx, "p1", 0, func(s *domain.Shot) error {
			s.ImageStatus = domain.StatusFailed
			s.ImageError = "boom"
			return nil
		})

		if err := r.ResetFrame(ctx, "p1", 0, domain.FrameFirst); err != nil {
			t.Fatal(err)
		}
		got, _ := r.GetShot(ctx, "p1", 0)
		if got.ImageStatus != domain.StatusIdle || got.ImageError != "" {
			t.Errorf("idle に戻りエラーが消えるはずです: %s %q", got.ImageStatus, got.ImageError)
		}

		if err := r.ResetFrame(ctx, "p1", 0, domain.FrameFirst); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("idle からの reset は不正な遷移のはずです: %v", err)
		}
	})
}

func TestRepository_ProjectFlags(t *testing.T) {
	eachStore(t, func(t *testing.T, r Repository) {
		ctx := context.Background()

		if v, _ := r.HasAutoGrouped(ctx, "p1"); v {
			t.Error("初期状態は false のはずです")
		}
		_ = r.SetHasAutoGrouped(ctx, "p1", true)
		if v, _ := r.HasAutoGrouped(ctx, "p1"); !v {
			t.Error("true になっているはずです")
		}

		if gi, _ := r.LastGridImage(ctx, "p1"); gi != nil {
			t.Errorf("初期状態は nil のはずです: %+v", gi)
		}
		_ = r.SetLastGridImage(ctx, "p1", "https://img/grid.png", []int{0, 2})
		gi, err := r.LastGridImage(ctx, "p1")
		if err != nil || gi == nil {
			t.Fatalf("記録されていません: %v", err)
		}
		if gi.URL != "https://img/grid.png" || !reflect.DeepEqual(gi.ShotIDs, []int{0, 2}) {
			t.Errorf("内容が一致しません: %+v", gi)
		}

		// プロジェクトは独立している
		if v, _ := r.HasAutoGrouped(ctx, "p2"); v {
			t.Error("別プロジェクトに影響してはいけません")
		}
	})
}

func TestRepository_ReplaceShots(t *testing.T) {
	eachStore(t, func(t *testing.T, r Repository) {
		ctx := context.Background()
		seed(t, r, 2)
		_ = r.SetHasAutoGrouped(ctx, "p1", true)

		err := r.ReplaceShots(ctx, "p1", []domain.Shot{{ID: 10}, {ID: 20}, {ID: 30}})
		if err != nil {
			t.Fatal(err)
		}
		shots, _ := r.ListShots(ctx, "p1")
		if !reflect.DeepEqual(shotIDs(shots), []int{0, 1, 2}) {
			t.Errorf("IDは振り直されるはずです: %v", shotIDs(shots))
		}
		if v, _ := r.HasAutoGrouped(ctx, "p1"); v {
			t.Error("グループ化フラグは初期化されるはずです")
		}
	})
}

func TestFileStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	fs1, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	seed(t, fs1, 2)

	if _, err := os.Stat(filepath.Join(dir, "p1.json")); err != nil {
		t.Fatalf("プロジェクトファイルが作成されていません: %v", err)
	}

	fs2, _ := NewFileStore(dir)
	shots, err := fs2.ListShots(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(shots) != 2 || shots[1].ImagePrompt != "b" {
		t.Errorf("別インスタンスから読み戻せるはずです: %+v", shots)
	}

	t.Run("不正なプロジェクトID", func(t *testing.T) {
		if _, err := fs2.ListShots(ctx, "../escape"); err == nil {
			t.Error("パス区切りを含むIDはエラーになるはずです")
		}
	})
}

func TestFileStore_ConcurrentUpdates(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	seed(t, fs, 1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fs.UpdateShot(ctx, "p1", 0, func(s *domain.Shot) error {
				s.ImageProgress++
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := fs.GetShot(ctx, "p1", 0)
	if got.ImageProgress != 20 {
		t.Errorf("更新が失われています: %d", got.ImageProgress)
	}
}
