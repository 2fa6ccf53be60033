package store

import (
	"fmt"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// GridImage は直近に生成されたグリッド合成画像の記録です。
type GridImage struct {
	URL       string    `json:"url"`
	ShotIDs   []int     `json:"shotIds"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project は1つのストーリーボードプロジェクトの永続化単位です。
type Project struct {
	ID             string             `json:"id"`
	Shots          []domain.Shot      `json:"shots"`
	Groups         []domain.ShotGroup `json:"shotGroups"`
	HasAutoGrouped bool               `json:"hasAutoGrouped"`
	LastGridImage  *GridImage         `json:"lastGridImage,omitempty"`
}

func newProject(id string) *Project {
	return &Project{ID: id}
}

func (p *Project) clone() *Project {
	c := *p
	c.Shots = make([]domain.Shot, len(p.Shots))
	for i, s := range p.Shots {
		c.Shots[i] = s.Clone()
	}
	c.Groups = make([]domain.ShotGroup, len(p.Groups))
	for i, g := range p.Groups {
		c.Groups[i] = g.Clone()
	}
	if p.LastGridImage != nil {
		gi := *p.LastGridImage
		gi.ShotIDs = append([]int(nil), p.LastGridImage.ShotIDs...)
		c.LastGridImage = &gi
	}
	return &c
}

func (p *Project) index(id int) (int, error) {
	for i := range p.Shots {
		if p.Shots[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: project %s shot %d", domain.ErrShotNotFound, p.ID, id)
}

// updateShot は複製に fn を適用し、成功したときだけ書き戻します。
func (p *Project) updateShot(id int, fn func(*domain.Shot) error) error {
	i, err := p.index(id)
	if err != nil {
		return err
	}
	s := p.Shots[i].Clone()
	if err := fn(&s); err != nil {
		return err
	}
	s.ID = id
	p.Shots[i] = s
	return nil
}

// addShot は末尾に追加し、連番のIDを振ります。
func (p *Project) addShot(shot domain.Shot) domain.Shot {
	shot.ID = len(p.Shots)
	shot.ImageStatus = shot.ImageStatus.Normalize()
	shot.EndFrameStatus = shot.EndFrameStatus.Normalize()
	shot.VideoStatus = shot.VideoStatus.Normalize()
	p.Shots = append(p.Shots, shot.Clone())
	return shot
}

// deleteShot はショットを取り除き、IDを詰め直します。
// グループからも取り除き、後ろのIDをずらし、空になったグループは削除します。
func (p *Project) deleteShot(id int) error {
	i, err := p.index(id)
	if err != nil {
		return err
	}
	p.Shots = append(p.Shots[:i], p.Shots[i+1:]...)
	for j := range p.Shots {
		p.Shots[j].ID = j
	}

	durations := make(map[int]float64, len(p.Shots))
	for _, s := range p.Shots {
		durations[s.ID] = s.EffectiveDuration()
	}

	groups := p.Groups[:0]
	for _, g := range p.Groups {
		ids := make([]int, 0, len(g.SceneIDs))
		var total float64
		for _, sid := range g.SceneIDs {
			switch {
			case sid == id:
				continue
			case sid > id:
				sid--
			}
			ids = append(ids, sid)
			total += durations[sid]
		}
		if len(ids) == 0 {
			continue
		}
		g.SceneIDs = ids
		g.TotalDuration = total
		groups = append(groups, g)
	}
	p.Groups = groups
	return nil
}

// replaceShots はショット一覧を置き換え、IDを 0 からの連番に振り直します。
// グループ情報は無効になるため初期化します。
func (p *Project) replaceShots(shots []domain.Shot) {
	p.Shots = nil
	p.Groups = nil
	p.HasAutoGrouped = false
	for _, s := range shots {
		p.addShot(s)
	}
}
