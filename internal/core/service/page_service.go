package service

import (
	"context"
	"errors"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
	"github.com/tablewise/restaurant-backoffice/internal/core/ports"
)

// PageService implements CMS page management and the site navigation tree.
type PageService struct {
	repo ports.PageRepository
}

func NewPageService(repo ports.PageRepository) *PageService {
	return &PageService{repo: repo}
}

func (s *PageService) Create(ctx context.Context, page *domain.Page) error {
	page.ID = 0
	if err := s.checkParent(ctx, 0, page.ParentID); err != nil {
		return err
	}
	return s.repo.Create(ctx, page)
}

// Update replaces every editable field of an existing page.
func (s *PageService) Update(ctx context.Context, page *domain.Page) error {
	existing, err := s.repo.FindByID(ctx, page.ID)
	if err != nil {
		return err
	}
	if err := s.checkParent(ctx, page.ID, page.ParentID); err != nil {
		return err
	}
	page.CreatedAt = existing.CreatedAt
	return s.repo.Update(ctx, page)
}

func (s *PageService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *PageService) Get(ctx context.Context, id uint) (*domain.Page, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PageService) GetBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	return s.repo.FindBySlug(ctx, slug)
}

func (s *PageService) List(ctx context.Context) ([]domain.Page, error) {
	return s.repo.List(ctx)
}

// checkParent rejects a parent that does not exist, is the page itself, or
// descends from the page. selfID is zero for pages not yet stored.
func (s *PageService) checkParent(ctx context.Context, selfID uint, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if selfID != 0 && *parentID == selfID {
		return domain.ErrParentCycle
	}

	seen := map[uint]struct{}{}
	cur := *parentID
	for first := true; ; first = false {
		p, err := s.repo.FindByID(ctx, cur)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				if first {
					return domain.ErrParentNotFound
				}
				return nil
			}
			return err
		}
		seen[cur] = struct{}{}

		if p.ParentID == nil {
			return nil
		}
		if selfID != 0 && *p.ParentID == selfID {
			return domain.ErrParentCycle
		}
		if _, loop := seen[*p.ParentID]; loop {
			return domain.ErrParentCycle
		}
		cur = *p.ParentID
	}
}

// Menu returns the pages flagged for placement as a forest. A page whose
// parent is not part of the same placement is shown at the top level.
func (s *PageService) Menu(ctx context.Context, placement string) ([]*domain.MenuItem, error) {
	if placement == "" {
		placement = domain.PlacementMenu
	}
	if placement != domain.PlacementMenu && placement != domain.PlacementFooter {
		return nil, domain.ErrInvalidPlacement
	}

	pages, err := s.repo.ListByPlacement(ctx, placement)
	if err != nil {
		return nil, err
	}

	items := make(map[uint]*domain.MenuItem, len(pages))
	for _, p := range pages {
		items[p.ID] = &domain.MenuItem{ID: p.ID, Slug: p.Slug, Title: p.Title, Order: p.MenuOrder}
	}

	parentOf := make(map[uint]uint, len(pages))
	for _, p := range pages {
		if p.ParentID != nil {
			if _, ok := items[*p.ParentID]; ok {
				parentOf[p.ID] = *p.ParentID
			}
		}
	}

	roots := make([]*domain.MenuItem, 0, len(pages))
	for _, p := range pages {
		item := items[p.ID]
		if parentID, ok := parentOf[p.ID]; ok && !onCycle(p.ID, parentOf) {
			items[parentID].Children = append(items[parentID].Children, item)
			continue
		}
		roots = append(roots, item)
	}
	return roots, nil
}

// onCycle reports whether following parent links from id leads back to id.
func onCycle(id uint, parentOf map[uint]uint) bool {
	cur, steps := id, 0
	for {
		next, ok := parentOf[cur]
		if !ok {
			return false
		}
		if next == id {
			return true
		}
		if steps++; steps > len(parentOf) {
			return false
		}
		cur = next
	}
}
