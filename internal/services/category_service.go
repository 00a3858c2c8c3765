package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
)

// CategoryService manages the category collection, including the
// predefined categories every session starts with.
type CategoryService struct {
	store CategoryStore
	notifier
}

func NewCategoryService(store CategoryStore, pub Publisher, logger *log.Logger) *CategoryService {
	return &CategoryService{
		store:    store,
		notifier: notifier{pub: pub, log: log.OrDiscard(logger).WithComponent(log.ComponentServices)},
	}
}

// List returns all categories sorted by name, ignoring case.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
	return cats, nil
}

// Seed writes the predefined categories. Existing ones are left alone
// unless forceRecreate is set, in which case they get their original name
// back. A predefined category whose name is now taken by another category
// is skipped. Returns how many were written.
func (s *CategoryService) Seed(ctx context.Context, forceRecreate bool) (int, error) {
	existing, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}

	written := 0
	for _, def := range core.PredefinedCategories {
		if _, ok := findByID(existing, def.ID); ok && !forceRecreate {
			s.log.DebugContext(ctx, "Predefined category already present", log.FieldCategoryID, def.ID)
			continue
		}
		if other, ok := findByName(existing, def.Name, def.ID); ok {
			s.log.WarnContext(ctx, "Predefined category name taken, skipping",
				log.FieldCategory, def.Name,
				log.FieldCategoryID, other.ID)
			continue
		}
		if _, err := s.store.Put(ctx, def); err != nil {
			return written, fmt.Errorf("seed category %q: %w", def.Name, err)
		}
		written++
	}

	s.log.InfoContext(ctx, "Predefined categories seeded",
		log.FieldOperation, log.OpSeed,
		log.FieldCount, written)
	if written > 0 {
		s.publish(ctx, events.CategoriesUpdated{})
	}
	return written, nil
}

// Add creates a user category. Names are unique regardless of case.
func (s *CategoryService) Add(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	existing, err := s.store.GetAll(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	if _, ok := findByName(existing, c.Name, 0); ok {
		return core.Category{}, fmt.Errorf("category %q already exists: %w", c.Name, core.ErrConstraint)
	}

	id, err := s.store.Add(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	c.ID = id

	s.log.InfoContext(ctx, "Category added", log.FieldCategoryID, id, log.FieldCategory, c.Name)
	s.publish(ctx, events.CategoriesUpdated{})
	return c, nil
}

// Rename changes a category's name. The original name of a predefined
// category is kept so a reset can restore it.
func (s *CategoryService) Rename(ctx context.Context, id int64, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if err := (core.Category{Name: name}).Validate(); err != nil {
		return core.Category{}, err
	}

	existing, err := s.store.GetAll(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("rename category: %w", err)
	}
	current, ok := findByID(existing, id)
	if !ok {
		return core.Category{}, fmt.Errorf("rename category %d: %w", id, core.ErrNotFound)
	}
	if current.Name == name {
		return current, ErrNameUnchanged
	}
	if _, ok := findByName(existing, name, id); ok {
		return core.Category{}, fmt.Errorf("category %q already exists: %w", name, core.ErrConstraint)
	}

	current.Name = name
	if err := s.store.Update(ctx, current); err != nil {
		return core.Category{}, fmt.Errorf("rename category %d: %w", id, err)
	}

	s.log.InfoContext(ctx, "Category renamed", log.FieldCategoryID, id, log.FieldCategory, name)
	s.publish(ctx, events.CategoriesUpdated{})
	return current, nil
}

// Delete removes an existing category and always announces it, even when
// nothing referenced it, so dependents can reconcile. An unknown id is
// ErrNotFound and announces nothing.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	_, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("delete category %d: %w", id, core.ErrNotFound)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.log.InfoContext(ctx, "Category deleted", log.FieldCategoryID, id)
	s.publish(ctx, events.CategoryDeleted{CategoryID: id})
	return nil
}

// Reset deletes every category, cascading to dependents, and then restores
// the predefined set.
func (s *CategoryService) Reset(ctx context.Context) error {
	all, err := s.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("reset categories: %w", err)
	}
	for i, c := range all {
		if err := s.Delete(ctx, c.ID); err != nil {
			s.log.ErrorContext(ctx, "Category reset stopped",
				log.FieldOperation, log.OpReset,
				log.FieldCount, i,
				log.FieldError, err)
			return fmt.Errorf("reset categories: %w", err)
		}
	}
	if _, err := s.Seed(ctx, true); err != nil {
		return fmt.Errorf("reset categories: %w", err)
	}
	return nil
}

func findByID(cats []core.Category, id int64) (core.Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

// findByName finds a category with a colliding name, ignoring the one with
// id except.
func findByName(cats []core.Category, name string, except int64) (core.Category, bool) {
	for _, c := range cats {
		if c.ID != except && core.SameName(c.Name, name) {
			return c, true
		}
	}
	return core.Category{}, false
}
