package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

type stubPageRepo struct {
	nextID uint
	pages  map[uint]*domain.Page
}

func newStubPageRepo() *stubPageRepo {
	return &stubPageRepo{pages: map[uint]*domain.Page{}}
}

func (r *stubPageRepo) Create(_ context.Context, p *domain.Page) error {
	for _, existing := range r.pages {
		if existing.Slug == p.Slug {
			return domain.ErrConflict
		}
	}
	r.nextID++
	p.ID = r.nextID
	clone := *p
	r.pages[p.ID] = &clone
	return nil
}

func (r *stubPageRepo) Update(_ context.Context, p *domain.Page) error {
	if _, ok := r.pages[p.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *p
	r.pages[p.ID] = &clone
	return nil
}

func (r *stubPageRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.pages[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.pages, id)
	return nil
}

func (r *stubPageRepo) FindByID(_ context.Context, id uint) (*domain.Page, error) {
	p, ok := r.pages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPageRepo) FindBySlug(_ context.Context, slug string) (*domain.Page, error) {
	for _, p := range r.pages {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubPageRepo) List(_ context.Context) ([]domain.Page, error) {
	return r.sorted(func(*domain.Page) bool { return true }), nil
}

func (r *stubPageRepo) ListByPlacement(_ context.Context, placement string) ([]domain.Page, error) {
	return r.sorted(func(p *domain.Page) bool {
		if placement == domain.PlacementFooter {
			return p.ShowInFooter
		}
		return p.ShowInMenu
	}), nil
}

func (r *stubPageRepo) sorted(keep func(*domain.Page) bool) []domain.Page {
	out := []domain.Page{}
	for _, p := range r.pages {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MenuOrder != out[j].MenuOrder {
			return out[i].MenuOrder < out[j].MenuOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func uptr(v uint) *uint { return &v }

func mustCreatePage(t *testing.T, svc *PageService, p *domain.Page) *domain.Page {
	t.Helper()
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("create %s: %v", p.Slug, err)
	}
	return p
}

func TestPageService_ParentValidation(t *testing.T) {
	repo := newStubPageRepo()
	svc := NewPageService(repo)
	ctx := context.Background()

	root := mustCreatePage(t, svc, &domain.Page{Slug: "menu", Title: "Menu"})
	child := mustCreatePage(t, svc, &domain.Page{Slug: "lunch", Title: "Lunch", ParentID: uptr(root.ID)})
	grandchild := mustCreatePage(t, svc, &domain.Page{Slug: "soups", Title: "Soups", ParentID: uptr(child.ID)})

	if err := svc.Create(ctx, &domain.Page{Slug: "orphan", Title: "Orphan", ParentID: uptr(99)}); !errors.Is(err, domain.ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}

	self := *root
	self.ParentID = uptr(root.ID)
	if err := svc.Update(ctx, &self); !errors.Is(err, domain.ErrParentCycle) {
		t.Fatalf("self parent: expected ErrParentCycle, got %v", err)
	}

	loop := *root
	loop.ParentID = uptr(grandchild.ID)
	if err := svc.Update(ctx, &loop); !errors.Is(err, domain.ErrParentCycle) {
		t.Fatalf("descendant parent: expected ErrParentCycle, got %v", err)
	}

	moved := *grandchild
	moved.ParentID = uptr(root.ID)
	if err := svc.Update(ctx, &moved); err != nil {
		t.Fatalf("valid move failed: %v", err)
	}

	if err := svc.Update(ctx, &domain.Page{ID: 404, Slug: "x", Title: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPageService_MenuTree(t *testing.T) {
	repo := newStubPageRepo()
	svc := NewPageService(repo)

	about := mustCreatePage(t, svc, &domain.Page{Slug: "about", Title: "About", ShowInMenu: true, MenuOrder: 2})
	home := mustCreatePage(t, svc, &domain.Page{Slug: "home", Title: "Home", ShowInMenu: true, MenuOrder: 1})
	mustCreatePage(t, svc, &domain.Page{Slug: "team", Title: "Team", ShowInMenu: true, MenuOrder: 1, ParentID: uptr(about.ID)})
	mustCreatePage(t, svc, &domain.Page{Slug: "story", Title: "Story", ShowInMenu: true, MenuOrder: 0, ParentID: uptr(about.ID)})
	hidden := mustCreatePage(t, svc, &domain.Page{Slug: "hidden", Title: "Hidden"})
	mustCreatePage(t, svc, &domain.Page{Slug: "careers", Title: "Careers", ShowInMenu: true, MenuOrder: 5, ParentID: uptr(hidden.ID)})
	mustCreatePage(t, svc, &domain.Page{Slug: "privacy", Title: "Privacy", ShowInFooter: true})

	tree, err := svc.Menu(context.Background(), "")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	var slugs []string
	for _, item := range tree {
		slugs = append(slugs, item.Slug)
	}
	want := []string{"home", "about", "careers"}
	if len(slugs) != len(want) {
		t.Fatalf("roots = %v, want %v", slugs, want)
	}
	for i := range want {
		if slugs[i] != want[i] {
			t.Fatalf("roots = %v, want %v", slugs, want)
		}
	}
	if tree[0].ID != home.ID {
		t.Fatalf("home must come first")
	}
	children := tree[1].Children
	if len(children) != 2 || children[0].Slug != "story" || children[1].Slug != "team" {
		t.Fatalf("unexpected children of about: %+v", children)
	}

	footer, err := svc.Menu(context.Background(), domain.PlacementFooter)
	if err != nil || len(footer) != 1 || footer[0].Slug != "privacy" {
		t.Fatalf("unexpected footer: %+v, %v", footer, err)
	}

	if _, err := svc.Menu(context.Background(), "sidebar"); !errors.Is(err, domain.ErrInvalidPlacement) {
		t.Fatalf("expected ErrInvalidPlacement, got %v", err)
	}
}

func TestPageService_MenuSurvivesStoredCycle(t *testing.T) {
	repo := newStubPageRepo()
	repo.pages[1] = &domain.Page{ID: 1, Slug: "a", ShowInMenu: true, ParentID: uptr(2)}
	repo.pages[2] = &domain.Page{ID: 2, Slug: "b", ShowInMenu: true, ParentID: uptr(1)}
	repo.pages[3] = &domain.Page{ID: 3, Slug: "c", ShowInMenu: true, ParentID: uptr(1)}

	tree, err := NewPageService(repo).Menu(context.Background(), domain.PlacementMenu)
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("expected the two cycle members as roots, got %d", len(tree))
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].Slug != "c" {
		t.Fatalf("c should hang under a: %+v", tree[0])
	}
}
