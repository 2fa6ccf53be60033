package pipeline

// PageReport は1ページ分の実行結果です。
type PageReport struct {
	Index        int
	Layout       string
	Tasks        int
	CompositeURL string
	Applied      []int
	Failed       []int
	Error        string
}

// Report はオーケストレーター1回分の実行結果です。
type Report struct {
	ProjectID      string
	SkippedShots   int
	TotalTasks     int
	TotalPages     int
	CompletedPages int
	AbortedPages   int
	Cancelled      bool
	Pages          []PageReport
}

// AppliedCount は反映に成功したタスク数の合計です。
func (r *Report) AppliedCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Applied)
	}
	return n
}

// FailedCount は失敗したタスク数の合計です。
func (r *Report) FailedCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Failed)
	}
	return n
}
