package domain

import (
	"fmt"
	"strings"
)

const (
	// MaxTasksPerPage は1枚のグリッド画像に詰め込めるタスク数の上限です（3x3）。
	MaxTasksPerPage = 9
	// MaxReferenceImages はプロバイダが受け付ける参照画像の上限です。
	MaxReferenceImages = 14
)

// ReferenceStrategy は参照画像をどれだけ添付するかの方針です。
type ReferenceStrategy string

const (
	StrategyCluster ReferenceStrategy = "cluster"
	StrategyMinimal ReferenceStrategy = "minimal"
	StrategyNone    ReferenceStrategy = "none"
)

// ParseReferenceStrategy は文字列を ReferenceStrategy に変換します。空文字は cluster です。
func ParseReferenceStrategy(s string) (ReferenceStrategy, error) {
	switch v := ReferenceStrategy(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return StrategyCluster, nil
	case StrategyCluster, StrategyMinimal, StrategyNone:
		return v, nil
	default:
		return "", fmt.Errorf("unknown reference strategy %q (cluster|minimal|none)", s)
	}
}

// Cap は方針ごとの参照画像の上限数です。
func (s ReferenceStrategy) Cap() int {
	switch s {
	case StrategyNone:
		return 0
	case StrategyMinimal:
		return 2
	default:
		return MaxReferenceImages
	}
}

// GridTask はグリッド内の1パネルに割り当てる (ショット, フレーム種別) の組です。
type GridTask struct {
	Shot Shot
	Type FrameType
}

// GridPage は1回のグリッド生成で扱うタスク群です。永続化はしません。
type GridPage struct {
	Index        int
	Tasks        []GridTask
	References   []string
	CompositeURL string
}

// FirstFrameShotIDs はページ内の開始フレームタスクのショットIDを順に返します。
func (p GridPage) FirstFrameShotIDs() []int {
	var ids []int
	for _, t := range p.Tasks {
		if t.Type == FrameFirst {
			ids = append(ids, t.Shot.ID)
		}
	}
	return ids
}

// ShotIDs はページ内のショットIDを重複なく順に返します。
func (p GridPage) ShotIDs() []int {
	seen := make(map[int]struct{}, len(p.Tasks))
	var ids []int
	for _, t := range p.Tasks {
		if _, ok := seen[t.Shot.ID]; ok {
			continue
		}
		seen[t.Shot.ID] = struct{}{}
		ids = append(ids, t.Shot.ID)
	}
	return ids
}

// Paginate はタスク列を size 件ずつのページに分割します。
func Paginate(tasks []GridTask, size int) []GridPage {
	if size <= 0 {
		size = MaxTasksPerPage
	}
	var pages []GridPage
	for i := 0; i < len(tasks); i += size {
		end := i + size
		if end > len(tasks) {
			end = len(tasks)
		}
		pages = append(pages, GridPage{Index: len(pages), Tasks: tasks[i:end]})
	}
	return pages
}
