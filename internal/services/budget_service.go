package services

import (
	"context"
	"fmt"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/storage"
)

// BudgetService keeps at most one budget per category and month.
type BudgetService struct {
	store      BudgetStore
	categories CategoryStore
	notifier
}

func NewBudgetService(store BudgetStore, categories CategoryStore, pub Publisher, logger *log.Logger) *BudgetService {
	return &BudgetService{
		store:      store,
		categories: categories,
		notifier:   notifier{pub: pub, log: log.OrDiscard(logger).WithComponent(log.ComponentServices)},
	}
}

func (s *BudgetService) All(ctx context.Context) ([]core.Budget, error) {
	budgets, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	return budgets, nil
}

func (s *BudgetService) ForPeriod(ctx context.Context, p core.Period) ([]core.Budget, error) {
	budgets, err := s.store.FindByIndex(ctx, storage.IndexPeriod, []any{p.Month, p.Year})
	if err != nil {
		return nil, fmt.Errorf("load budgets of %s: %w", p, err)
	}
	return budgets, nil
}

// checkUnique fails with core.ErrConstraint when another budget already
// covers the same category and period.
func (s *BudgetService) checkUnique(ctx context.Context, b core.Budget) error {
	existing, err := s.ForPeriod(ctx, b.Period())
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.CategoryID == b.CategoryID && e.ID != b.ID {
			return fmt.Errorf("budget for category %d in %s already exists: %w", b.CategoryID, b.Period(), core.ErrConstraint)
		}
	}
	return nil
}

func (s *BudgetService) Add(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = 0
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if _, err := categoryName(ctx, s.categories, b.CategoryID); err != nil {
		return core.Budget{}, fmt.Errorf("add budget: %w", err)
	}
	if err := s.checkUnique(ctx, b); err != nil {
		return core.Budget{}, err
	}

	id, err := s.store.Add(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("add budget: %w", err)
	}
	b.ID = id

	s.log.InfoContext(ctx, "Budget added",
		log.FieldID, id,
		log.FieldCategoryID, b.CategoryID,
		log.FieldMonth, b.Month,
		log.FieldYear, b.Year)
	s.publish(ctx, events.BudgetsUpdated{})
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == 0 {
		return core.Budget{}, fmt.Errorf("update budget: %w", core.ErrNotFound)
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	_, ok, err := s.store.Get(ctx, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	if !ok {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, core.ErrNotFound)
	}
	if _, err := categoryName(ctx, s.categories, b.CategoryID); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	if err := s.checkUnique(ctx, b); err != nil {
		return core.Budget{}, err
	}

	if err := s.store.Update(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	s.log.InfoContext(ctx, "Budget updated", log.FieldID, b.ID)
	s.publish(ctx, events.BudgetsUpdated{})
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	_, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("delete budget %d: %w", id, core.ErrNotFound)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	s.log.InfoContext(ctx, "Budget deleted", log.FieldID, id)
	s.publish(ctx, events.BudgetsUpdated{})
	return nil
}

// DeleteByCategory removes every budget of a category in one atomic store
// operation.
func (s *BudgetService) DeleteByCategory(ctx context.Context, categoryID int64) (int, error) {
	n, err := s.store.DeleteAllByIndex(ctx, storage.IndexCategoryID, categoryID)
	if err != nil {
		return 0, fmt.Errorf("delete budgets of category %d: %w", categoryID, err)
	}
	s.log.InfoContext(ctx, "Budgets of category deleted",
		log.FieldOperation, log.OpCascade,
		log.FieldCategoryID, categoryID,
		log.FieldCount, n)
	if n > 0 {
		s.publish(ctx, events.BudgetsUpdated{})
	}
	return n, nil
}
