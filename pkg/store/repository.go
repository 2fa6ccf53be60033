package store

import (
	"context"
	"time"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// Repository はプロジェクトIDをキーとしたショットとグループの保存先です。
// 書き込みはプロジェクト単位で直列化されます。
type Repository interface {
	ListShots(ctx context.Context, projectID string) ([]domain.Shot, error)
	GetShot(ctx context.Context, projectID string, id int) (domain.Shot, error)
	UpdateShot(ctx context.Context, projectID string, id int, fn func(*domain.Shot) error) error
	AddShot(ctx context.Context, projectID string, shot domain.Shot) (domain.Shot, error)
	DeleteShot(ctx context.Context, projectID string, id int) error
	ReplaceShots(ctx context.Context, projectID string, shots []domain.Shot) error
	ResetFrame(ctx context.Context, projectID string, id int, t domain.FrameType) error

	Groups(ctx context.Context, projectID string) ([]domain.ShotGroup, error)
	SetGroups(ctx context.Context, projectID string, groups []domain.ShotGroup) error
	HasAutoGrouped(ctx context.Context, projectID string) (bool, error)
	SetHasAutoGrouped(ctx context.Context, projectID string, v bool) error

	SetLastGridImage(ctx context.Context, projectID, url string, shotIDs []int) error
	LastGridImage(ctx context.Context, projectID string) (*GridImage, error)
}

// backend はプロジェクト全体の読み取りと排他的な更新を提供します。
type backend interface {
	view(ctx context.Context, projectID string, fn func(*Project) error) error
	mutate(ctx context.Context, projectID string, fn func(*Project) error) error
}

// repository は backend の上に Repository の各操作を実装します。
type repository struct {
	b   backend
	now func() time.Time
}

func (r *repository) ListShots(ctx context.Context, projectID string) ([]domain.Shot, error) {
	var shots []domain.Shot
	err := r.b.view(ctx, projectID, func(p *Project) error {
		shots = make([]domain.Shot, len(p.Shots))
		for i, s := range p.Shots {
			shots[i] = s.Clone()
		}
		return nil
	})
	return shots, err
}

func (r *repository) GetShot(ctx context.Context, projectID string, id int) (domain.Shot, error) {
	var shot domain.Shot
	err := r.b.view(ctx, projectID, func(p *Project) error {
		i, err := p.index(id)
		if err != nil {
			return err
		}
		shot = p.Shots[i].Clone()
		return nil
	})
	return shot, err
}

func (r *repository) UpdateShot(ctx context.Context, projectID string, id int, fn func(*domain.Shot) error) error {
	return r.b.mutate(ctx, projectID, func(p *Project) error {
		return p.updateShot(id, fn)
	})
}

func (r *repository) AddShot(ctx context.Context, projectID string, shot domain.Shot) (domain.Shot, error) {
	var added domain.Shot
	err := r.b.mutate(ctx, projectID, func(p *Project) error {
		added = p.addShot(shot)
		return nil
	})
	return added, err
}

func (r *repository) DeleteShot(ctx context.Context, projectID string, id int) error {
	return r.b.mutate(ctx, projectID, func(p *Project) error {
		return p.deleteShot(id)
	})
}

func (r *repository) ReplaceShots(ctx context.Context, projectID string, shots []domain.Shot) error {
	return r.b.mutate(ctx, projectID, func(p *Project) error {
		p.replaceShots(shots)
		return nil
	})
}

// ResetFrame は failed のフレームを idle へ戻します（手動リトライ）。
func (r *repository) ResetFrame(ctx context.Context, projectID string, id int, t domain.FrameType) error {
	return r.UpdateShot(ctx, projectID, id, func(s *domain.Shot) error {
		return s.UpdateFrame(t, func(f *domain.FrameState) error {
			return f.Reset()
		})
	})
}

func (r *repository) Groups(ctx context.Context, projectID string) ([]domain.ShotGroup, error) {
	var groups []domain.ShotGroup
	err := r.b.view(ctx, projectID, func(p *Project) error {
		groups = make([]domain.ShotGroup, len(p.Groups))
		for i, g := range p.Groups {
			groups[i] = g.Clone()
		}
		return nil
	})
	return groups, err
}

func (r *repository) SetGroups(ctx context.Context, projectID string, groups []domain.ShotGroup) error {
	return r.b.mutate(ctx, projectID, func(p *Project) error {
		p.Groups = make([]domain.ShotGroup, len(groups))
		for i, g := range groups {
			p.Groups[i] = g.Clone()
		}
		return nil
	})
}

func (r *repository) HasAutoGrouped(ctx context.Context, projectID string) (bool, error) {
	var v bool
	err := r.b.view(ctx, projectID, func(p *Project) error {
		v = p.HasAutoGrouped
		return nil
	})
	return v, err
}

func (r *repository) SetHasAutoGrouped(ctx context.Context, projectID string, v bool) error {
	return r.b.mutate(ctx, projectID, func(p *Project) error {
		p.HasAutoGrouped = v
		return nil
	})
}

func (r *repository) SetLastGridImage(ctx context.Context, projectID, url string, shotIDs []int) error {
	return r.b.mutate(ctx, projectID, func(p *Project) error {
		p.LastGridImage = &GridImage{
			URL:       url,
			ShotIDs:   append([]int(nil), shotIDs...),
			UpdatedAt: r.now(),
		}
		return nil
	})
}

func (r *repository) LastGridImage(ctx context.Context, projectID string) (*GridImage, error) {
	var gi *GridImage
	err := r.b.view(ctx, projectID, func(p *Project) error {
		if p.LastGridImage != nil {
			c := *p.LastGridImage
			c.ShotIDs = append([]int(nil), p.LastGridImage.ShotIDs...)
			gi = &c
		}
		return nil
	})
	return gi, err
}
