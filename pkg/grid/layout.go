package grid

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// Layout はグリッドの行数と列数です。
// 全体画像と各パネルのアスペクト比を一致させるため、常に N×N を使います。
type Layout struct {
	Rows int
	Cols int
}

// LayoutFor はタスク数から N×N レイアウトを決めます（4件以下は 2×2、9件以下は 3×3）。
func LayoutFor(n int) (Layout, error) {
	switch {
	case n <= 0:
		return Layout{}, fmt.Errorf("grid needs at least one task, got %d", n)
	case n <= 4:
		return Layout{Rows: 2, Cols: 2}, nil
	case n <= domain.MaxTasksPerPage:
		return Layout{Rows: 3, Cols: 3}, nil
	default:
		return Layout{}, fmt.Errorf("grid holds at most %d tasks, got %d: paginate first", domain.MaxTasksPerPage, n)
	}
}

// Cells は総セル数（プレースホルダ込み）です。
func (l Layout) Cells() int {
	return l.Rows * l.Cols
}

// Position は行優先の i 番目のセル位置を 1 始まりで返します。
func (l Layout) Position(i int) (row, col int) {
	return i/l.Cols + 1, i%l.Cols + 1
}

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d", l.Rows, l.Cols)
}
