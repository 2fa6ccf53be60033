package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shouni/go-storyboard-kit/pkg/config"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
	"github.com/shouni/go-storyboard-kit/pkg/provider"
)

// --- fakes ---

type fakeGenerator struct {
	mu       sync.Mutex
	requests []provider.SubmitRequest
	results  []*provider.SubmitResult
	err      error
}

func (f *fakeGenerator) Submit(_ context.Context, req provider.SubmitRequest) (*provider.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return &provider.SubmitResult{}, nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

type fakeWaiter struct {
	url      string
	err      error
	progress []int
	got      provider.PollRequest
}

func (f *fakeWaiter) Wait(_ context.Context, req provider.PollRequest) (string, error) {
	f.got = req
	for _, p := range f.progress {
		req.OnProgress(p)
	}
	return f.url, f.err
}

type memShots struct {
	mu    sync.Mutex
	shots map[int]*domain.Shot
}

func newMemShots(shots ...domain.Shot) *memShots {
	m := &memShots{shots: make(map[int]*domain.Shot)}
	for i := range shots {
		s := shots[i]
		m.shots[s.ID] = &s
	}
	return m
}

func (m *memShots) UpdateShot(_ context.Context, _ string, id int, fn func(*domain.Shot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shots[id]
	if !ok {
		return domain.ErrShotNotFound
	}
	return fn(s)
}

func (m *memShots) get(id int) domain.Shot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.shots[id]
}

type mapPreparer map[string]string

func (p mapPreparer) PrepareReference(_ context.Context, ref string) (string, bool) {
	v, ok := p[ref]
	return v, ok
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "https://api.example.com"
	cfg.APIKey = "sk-test"
	return cfg
}

func firstTasks(shots ...domain.Shot) []domain.GridTask {
	tasks := make([]domain.GridTask, 0, len(shots))
	for _, s := range shots {
		tasks = append(tasks, domain.GridTask{Shot: s, Type: domain.FrameFirst})
	}
	return tasks
}

// --- ReferenceCollector ---

func TestReferenceCollector_Collect(t *testing.T) {
	chars := domain.BuildCharactersMap([]domain.Character{
		{ID: "alice", ReferenceImages: []string{"a1.png", "a2.png"}},
		{ID: "bob", ReferenceImages: []string{"b1.png"}},
	})
	rc := NewReferenceCollector(chars, nil)

	shots := []domain.Shot{
		{ID: 0, SceneReferenceImage: "bg1.png", CharacterIDs: []string{"alice"}},
		{ID: 1, SceneReferenceImage: "bg1.png", CharacterIDs: []string{"bob", "alice"}},
		{ID: 2, SceneReferenceImage: "bg2.png", EndFrameSceneReferenceImage: "bg2-end.png"},
	}

	t.Run("背景が先で重複は除外される", func(t *testing.T) {
		got := rc.Collect(firstTasks(shots...), domain.StrategyCluster)
		want := []string{"bg1.png", "a1.png", "a2.png", "b1.png", "bg2.png"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("終了フレームタスクは終了フレーム用の背景を使う", func(t *testing.T) {
		got := rc.Collect([]domain.GridTask{{Shot: shots[2], Type: domain.FrameEnd}}, domain.StrategyCluster)
		if len(got) != 1 || got[0] != "bg2-end.png" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("同じショットは1度だけ巡回される", func(t *testing.T) {
		tasks := []domain.GridTask{
			{Shot: shots[2], Type: domain.FrameFirst},
			{Shot: shots[2], Type: domain.FrameEnd},
		}
		got := rc.Collect(tasks, domain.StrategyCluster)
		if len(got) != 1 || got[0] != "bg2.png" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("方針ごとの上限", func(t *testing.T) {
		if got := rc.Collect(firstTasks(shots...), domain.StrategyMinimal); len(got) != 2 {
			t.Errorf("minimal は2件のはずです: %v", got)
		}
		if got := rc.Collect(firstTasks(shots...), domain.StrategyNone); len(got) != 0 {
			t.Errorf("none は0件のはずです: %v", got)
		}
	})

	t.Run("cluster は14件を超えない", func(t *testing.T) {
		var many []domain.Shot
		for i := 0; i < 20; i++ {
			many = append(many, domain.Shot{ID: i, SceneReferenceImage: "bg" + string(rune('a'+i)) + ".png"})
		}
		if got := rc.Collect(firstTasks(many...), domain.StrategyCluster); len(got) != domain.MaxReferenceImages {
			t.Errorf("14件に制限されるはずです: %d", len(got))
		}
	})
}

func TestReferenceCollector_Resolve(t *testing.T) {
	rc := NewReferenceCollector(nil, mapPreparer{
		"https://x/a.png":        "https://x/a.png",
		"local-image://c/b.png":  "data:image/png;base64,Yg==",
		"data:image/png;base64,": "data:image/png;base64,",
	})

	got := rc.Resolve(context.Background(), []string{"https://x/a.png", "ftp://nope", "local-image://c/b.png"})
	want := []string{"https://x/a.png", "data:image/png;base64,Yg=="}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("順序を保って未対応の参照が除外されるはずです: got %v", got)
	}

	if got := rc.Resolve(context.Background(), nil); got != nil {
		t.Errorf("空入力は nil を返すはずです: %v", got)
	}
}

// --- GridGenerator ---

func TestGridGenerator_Compose(t *testing.T) {
	shots := []domain.Shot{{ID: 0, ImagePrompt: "a"}, {ID: 1, ImagePrompt: "b"}, {ID: 2, ImagePrompt: "c"}, {ID: 3, ImagePrompt: "d"}, {ID: 4, ImagePrompt: "e"}}
	pb := prompts.NewImagePromptBuilder(nil, nil)

	t.Run("同期レスポンス", func(t *testing.T) {
		store := newMemShots(shots...)
		gen := &fakeGenerator{results: []*provider.SubmitResult{{ImageURL: "https://img/grid.png"}}}
		g, err := NewGridGenerator(testConfig(), pb, gen, &fakeWaiter{}, store)
		if err != nil {
			t.Fatal(err)
		}
		page := domain.GridPage{Tasks: firstTasks(shots...), References: []string{"https://x/ref.png"}}

		res, err := g.Compose(context.Background(), "p1", page)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if res.CompositeURL != "https://img/grid.png" {
			t.Errorf("URL が一致しません: %s", res.CompositeURL)
		}
		if res.Layout.Rows != 3 || res.Layout.Cols != 3 {
			t.Errorf("5タスクは 3x3 のはずです: %s", res.Layout)
		}
		if !strings.Contains(res.Prompt, "exactly 9 equal-sized panels") {
			t.Errorf("プロンプトにパネル数が含まれていません")
		}
		if len(gen.requests) != 1 || len(gen.requests[0].ReferenceImages) != 1 {
			t.Errorf("参照画像付きで1回送信されるはずです: %+v", gen.requests)
		}
		if s := store.get(0); s.ImageStatus != domain.StatusGenerating || s.ImageProgress != initialProgress {
			t.Errorf("生成中・進捗10 になっているはずです: %s %d", s.ImageStatus, s.ImageProgress)
		}
	})

	t.Run("非同期レスポンスはポーリングし進捗を反映する", func(t *testing.T) {
		store := newMemShots(shots[:2]...)
		gen := &fakeGenerator{results: []*provider.SubmitResult{{TaskID: "task-1"}}}
		waiter := &fakeWaiter{url: "https://img/async.png", progress: []int{20, 15, 60}}
		cfg := testConfig()
		cfg.GridPollAttempts = 7
		g, _ := NewGridGenerator(cfg, pb, gen, waiter, store)

		res, err := g.Compose(context.Background(), "p1", domain.GridPage{Tasks: firstTasks(shots[:2]...)})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if res.CompositeURL != "https://img/async.png" || res.TaskID != "task-1" {
			t.Errorf("結果が一致しません: %+v", res)
		}
		if waiter.got.TaskID != "task-1" || waiter.got.MaxAttempts != 7 {
			t.Errorf("ポーリング要求が一致しません: %+v", waiter.got)
		}
		if s := store.get(1); s.ImageProgress != 60 {
			t.Errorf("進捗は単調増加で 60 のはずです: %d", s.ImageProgress)
		}
	})

	t.Run("空レスポンスは ErrEmptyResult", func(t *testing.T) {
		store := newMemShots(shots[:1]...)
		g, _ := NewGridGenerator(testConfig(), pb, &fakeGenerator{}, &fakeWaiter{}, store)
		_, err := g.Compose(context.Background(), "p1", domain.GridPage{Tasks: firstTasks(shots[:1]...)})
		if !errors.Is(err, domain.ErrEmptyResult) {
			t.Errorf("ErrEmptyResult を期待しましたが %v でした", err)
		}
	})

	t.Run("設定不足は送信前に失敗する", func(t *testing.T) {
		store := newMemShots(shots[:1]...)
		gen := &fakeGenerator{}
		cfg := testConfig()
		cfg.APIKey = ""
		g, _ := NewGridGenerator(cfg, pb, gen, &fakeWaiter{}, store)
		_, err := g.Compose(context.Background(), "p1", domain.GridPage{Tasks: firstTasks(shots[:1]...)})
		if !errors.Is(err, domain.ErrConfig) {
			t.Errorf("ErrConfig を期待しましたが %v でした", err)
		}
		if len(gen.requests) != 0 {
			t.Errorf("送信されてはいけません")
		}
		if s := store.get(0); s.ImageStatus.Normalize() != domain.StatusIdle {
			t.Errorf("ステータスは変わらないはずです: %s", s.ImageStatus)
		}
	})

	t.Run("必須依存の欠落", func(t *testing.T) {
		if _, err := NewGridGenerator(testConfig(), nil, &fakeGenerator{}, nil, newMemShots()); err == nil {
			t.Error("prompt builder が nil ならエラーになるはずです")
		}
	})
}

func TestGridGenerator_ComposeSingle(t *testing.T) {
	shot := domain.Shot{ID: 3, ImagePrompt: "sunset", NeedsEndFrame: true, EndFramePrompt: "night"}
	pb := prompts.NewImagePromptBuilder(nil, nil)

	t.Run("空レスポンスなら参照画像なしで再送する", func(t *testing.T) {
		store := newMemShots(shot)
		gen := &fakeGenerator{results: []*provider.SubmitResult{{}, {ImageURL: "https://img/single.png"}}}
		g, _ := NewGridGenerator(testConfig(), pb, gen, &fakeWaiter{}, store)

		url, err := g.ComposeSingle(context.Background(), "p1", domain.GridTask{Shot: shot, Type: domain.FrameEnd}, []string{"https://x/ref.png"})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if url != "https://img/single.png" {
			t.Errorf("URL が一致しません: %s", url)
		}
		if len(gen.requests) != 2 {
			t.Fatalf("2回送信されるはずです: %d", len(gen.requests))
		}
		if len(gen.requests[1].ReferenceImages) != 0 {
			t.Errorf("再送は参照画像なしのはずです")
		}
		if !strings.Contains(gen.requests[0].Prompt, "night") {
			t.Errorf("終了フレームのプロンプトが使われていません: %s", gen.requests[0].Prompt)
		}
		if s := store.get(3); s.EndFrameStatus != domain.StatusGenerating {
			t.Errorf("終了フレームが生成中になっているはずです: %s", s.EndFrameStatus)
		}
	})

	t.Run("参照画像なしの空レスポンスは再送しない", func(t *testing.T) {
		store := newMemShots(shot)
		gen := &fakeGenerator{}
		g, _ := NewGridGenerator(testConfig(), pb, gen, &fakeWaiter{}, store)
		_, err := g.ComposeSingle(context.Background(), "p1", domain.GridTask{Shot: shot, Type: domain.FrameFirst}, nil)
		if !errors.Is(err, domain.ErrEmptyResult) {
			t.Errorf("ErrEmptyResult を期待しましたが %v でした", err)
		}
		if len(gen.requests) != 1 {
			t.Errorf("1回だけ送信されるはずです: %d", len(gen.requests))
		}
	})

	t.Run("プロバイダのエラーは伝搬する", func(t *testing.T) {
		store := newMemShots(shot)
		gen := &fakeGenerator{err: &provider.ProviderError{StatusCode: 400, Message: "bad prompt"}}
		g, _ := NewGridGenerator(testConfig(), pb, gen, &fakeWaiter{}, store)
		_, err := g.ComposeSingle(context.Background(), "p1", domain.GridTask{Shot: shot, Type: domain.FrameFirst}, nil)
		if !errors.Is(err, domain.ErrProvider) || !strings.Contains(err.Error(), "bad prompt") {
			t.Errorf("プロバイダエラーを期待しましたが %v でした", err)
		}
	})
}
