package director

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

const (
	// MaxGroupShots は1グループに含められるショット数の上限です。
	MaxGroupShots = 4
	// MinGroupShots は境界でグループを閉じるのに必要なショット数です。
	MinGroupShots = 2
	// MaxGroupDuration は1グループの合計秒数の上限です。
	MaxGroupDuration = 15.0
)

// newGroupID はグループIDの採番関数です。
var newGroupID = uuid.NewString

// AutoGroup は、ショットを順番どおりに貪欲法で 2〜4 ショット・合計15秒以内のグループへ分割します。
// 途中に1ショットのグループが残るのは、直前のグループから借りても条件を満たせないときだけです。
// 結果は入力の順序と分割のみで決まり、すべてのショットがちょうど1つのグループに属します。
func AutoGroup(shots []domain.Shot) []domain.ShotGroup {
	var (
		groups  []domain.ShotGroup
		prev    []domain.Shot // 直前に閉じたグループのメンバー
		current []domain.Shot
		total   float64
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		groups = append(groups, newGroup(current, total))
		prev = current
		current, total = nil, 0
	}

	// borrow は直前のグループの末尾を current の先頭へ移し、1ショットのまま閉じるのを避ける。
	// 直前のグループが2ショット以上残り、移した後も15秒以内に収まるときだけ行う。
	borrow := func() {
		if len(groups) == 0 || len(prev) <= MinGroupShots {
			return
		}
		moved := prev[len(prev)-1]
		if total+moved.EffectiveDuration() > MaxGroupDuration {
			return
		}
		last := &groups[len(groups)-1]
		prev = prev[:len(prev)-1]
		rebuilt := newGroup(prev, sumDuration(prev))
		rebuilt.ID = last.ID
		*last = rebuilt
		current = append([]domain.Shot{moved}, current...)
		total += moved.EffectiveDuration()
	}

	for _, s := range shots {
		d := s.EffectiveDuration()
		if len(current) == 0 {
			current, total = []domain.Shot{s}, d
			continue
		}

		fits := len(current) < MaxGroupShots && total+d <= MaxGroupDuration
		boundary := isSceneBoundary(current[len(current)-1], s) && len(current) >= MinGroupShots
		if !fits || boundary {
			if !fits && len(current) < MinGroupShots {
				borrow()
			}
			flush()
			current, total = []domain.Shot{s}, d
			continue
		}
		current = append(current, s)
		total += d
	}

	// 末尾の1ショットは入る余地があれば直前のグループへ合流させる
	if len(current) == 1 && len(groups) > 0 {
		last := &groups[len(groups)-1]
		d := current[0].EffectiveDuration()
		if len(last.SceneIDs) < MaxGroupShots && last.TotalDuration+d <= MaxGroupDuration {
			last.SceneIDs = append(last.SceneIDs, current[0].ID)
			last.TotalDuration += d
			current = nil
		}
	}
	flush()

	return groups
}

// GroupName はグループの表示名を作ります。index は 0 始まりのグループ番号です。
// メンバー全員が同じシーン名を持つ場合は末尾に付け加えます。
func GroupName(g domain.ShotGroup, shots []domain.Shot, index int) string {
	if len(g.SceneIDs) == 0 {
		return fmt.Sprintf("Group %d", index+1)
	}

	first, last := g.SceneIDs[0]+1, g.SceneIDs[len(g.SceneIDs)-1]+1
	name := fmt.Sprintf("Group %d · Shots %d-%d", index+1, first, last)
	if first == last {
		name = fmt.Sprintf("Group %d · Shot %d", index+1, first)
	}

	if scene := commonSceneName(g, shots); scene != "" {
		name += " · " + scene
	}
	return name
}

// Regroup は未グループ化ならすべてを分割し、グループ化済みなら未割り当てのショットだけを分割して末尾に追加します。
// 既存のグループは内容も順序も変更しません。
func Regroup(existing []domain.ShotGroup, shots []domain.Shot, hasGrouped bool) []domain.ShotGroup {
	if !hasGrouped {
		groups := AutoGroup(shots)
		for i := range groups {
			groups[i].Name = GroupName(groups[i], shots, i)
		}
		return groups
	}

	out := make([]domain.ShotGroup, 0, len(existing))
	for _, g := range existing {
		out = append(out, g.Clone())
	}

	assigned := domain.AssignedShotIDs(existing)
	var unassigned []domain.Shot
	for _, s := range shots {
		if _, ok := assigned[s.ID]; !ok {
			unassigned = append(unassigned, s)
		}
	}
	if len(unassigned) == 0 {
		return out
	}

	for i, g := range AutoGroup(unassigned) {
		g.Name = GroupName(g, unassigned, len(existing)+i)
		out = append(out, g)
	}
	return out
}

func sumDuration(shots []domain.Shot) float64 {
	var total float64
	for _, s := range shots {
		total += s.EffectiveDuration()
	}
	return total
}

func newGroup(members []domain.Shot, total float64) domain.ShotGroup {
	ids := make([]int, len(members))
	for i, s := range members {
		ids[i] = s.ID
	}
	return domain.ShotGroup{
		ID:                newGroupID(),
		SceneIDs:          ids,
		TotalDuration:     total,
		CalibrationStatus: domain.CalibrationIdle,
		VideoStatus:       domain.StatusIdle,
	}
}

// isSceneBoundary は両方にロケーションがあり、それが異なるときに真です。
func isSceneBoundary(prev, next domain.Shot) bool {
	return prev.SceneLocation != "" && next.SceneLocation != "" && prev.SceneLocation != next.SceneLocation
}

func commonSceneName(g domain.ShotGroup, shots []domain.Shot) string {
	byID := make(map[int]string, len(shots))
	for _, s := range shots {
		byID[s.ID] = s.SceneName
	}
	var name string
	for i, id := range g.SceneIDs {
		n := byID[id]
		if n == "" {
			return ""
		}
		if i == 0 {
			name = n
			continue
		}
		if n != name {
			return ""
		}
	}
	return name
}
