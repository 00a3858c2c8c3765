package controller

import (
	"context"
	"errors"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/report"
)

// BudgetForm carries raw form input. A zero Month or Year falls back to the
// period the controller is showing.
type BudgetForm struct {
	CategoryID int64
	Month      int
	Year       int
	Amount     string
}

func (f BudgetForm) parse(p core.Period) (core.Budget, error) {
	if f.Month == 0 {
		f.Month = p.Month
	}
	if f.Year == 0 {
		f.Year = p.Year
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Budget{}, core.NewValidationError("amount", err.Error())
	}
	b := core.Budget{Month: f.Month, Year: f.Year, CategoryID: f.CategoryID, Amount: amount}
	return b, b.Validate()
}

type BudgetsSnapshot struct {
	Period     core.Period
	Budgets    []core.Budget
	Categories []core.Category
	Status     report.StatusReport
	EditingID  int64
}

// BudgetsController backs the budget screen of one month together with its
// estimated versus actual status. It also removes the budgets of a deleted
// category.
type BudgetsController struct {
	screen
	svc    BudgetService
	txs    TransactionService
	cats   CategoryService
	render func(BudgetsSnapshot)

	budgets    []core.Budget
	categories []core.Category
	status     report.StatusReport
}

func NewBudgetsController(svc BudgetService, txs TransactionService, cats CategoryService, bus Subscriber, opts Options[BudgetsSnapshot]) *BudgetsController {
	opts = opts.resolve()
	c := &BudgetsController{
		screen: newScreen("budgets", opts.Now, opts.Notifier, opts.Logger),
		svc:    svc,
		txs:    txs,
		cats:   cats,
		render: opts.OnRender,
	}
	c.subscribe(bus, c.onCategoryDeleted, events.KindCategoryDeleted)
	c.subscribe(bus, func(ctx context.Context, _ events.Notification) {
		_ = c.Load(ctx)
	}, events.KindBudgetsUpdated, events.KindTransactionsUpdated, events.KindCategoriesUpdated)
	return c
}

func (c *BudgetsController) onCategoryDeleted(ctx context.Context, n events.Notification) {
	deleted, ok := n.(events.CategoryDeleted)
	if !ok {
		return
	}
	count, err := c.svc.DeleteByCategory(ctx, deleted.CategoryID)
	if err != nil {
		_ = c.fail(ctx, log.OpCascade, err)
		return
	}
	c.log.InfoContext(ctx, "Category budgets removed",
		log.FieldCategoryID, deleted.CategoryID,
		log.FieldCount, count)
	if count == 0 {
		_ = c.Load(ctx)
	}
}

// Load re-fetches the budgets of the current period and recomputes their
// status against the period's expenses.
func (c *BudgetsController) Load(ctx context.Context) error {
	cats, err := c.cats.List(ctx)
	if err != nil {
		return c.fail(ctx, log.OpList, err)
	}
	budgets, err := c.svc.ForPeriod(ctx, c.period)
	if err != nil {
		return c.fail(ctx, log.OpList, err)
	}
	txs, err := c.txs.All(ctx)
	if err != nil {
		return c.fail(ctx, log.OpList, err)
	}
	c.categories = cats
	c.budgets = budgets
	c.status = report.BudgetStatus(budgets, txs, cats, c.period)
	if id, ok := c.edit.editing(); ok {
		if _, found := c.find(id); !found {
			c.edit.cancel()
		}
	}
	c.render(c.Snapshot())
	return nil
}

func (c *BudgetsController) Snapshot() BudgetsSnapshot {
	return BudgetsSnapshot{
		Period:     c.period,
		Budgets:    append([]core.Budget(nil), c.budgets...),
		Categories: append([]core.Category(nil), c.categories...),
		Status:     c.status,
		EditingID:  c.edit.id,
	}
}

func (c *BudgetsController) find(id int64) (core.Budget, bool) {
	for _, b := range c.budgets {
		if b.ID == id {
			return b, true
		}
	}
	return core.Budget{}, false
}

func (c *BudgetsController) SetPeriod(ctx context.Context, p core.Period) error {
	if err := c.setPeriod(p); err != nil {
		c.notify.Error(core.UserMessage(err))
		return err
	}
	c.edit.cancel()
	return c.Load(ctx)
}

func (c *BudgetsController) NextMonth(ctx context.Context) error {
	return c.SetPeriod(ctx, c.period.Add(1))
}

func (c *BudgetsController) PrevMonth(ctx context.Context) error {
	return c.SetPeriod(ctx, c.period.Add(-1))
}

func (c *BudgetsController) Add(ctx context.Context, form BudgetForm) error {
	b, err := form.parse(c.period)
	if err != nil {
		c.notify.Error(core.UserMessage(err))
		return err
	}
	if _, err := c.svc.Add(ctx, b); err != nil {
		if errors.Is(err, core.ErrConstraint) {
			c.notify.Error("Ya existe un presupuesto para esa categoría en ese mes.")
			return err
		}
		return c.fail(ctx, log.OpCreate, err)
	}
	c.notify.Info("Presupuesto guardado exitosamente.")
	return nil
}

func (c *BudgetsController) StartEdit(ctx context.Context, id int64) error {
	if _, ok := c.find(id); !ok {
		return c.fail(ctx, log.OpUpdate, core.ErrNotFound)
	}
	c.startEdit(id)
	c.render(c.Snapshot())
	return nil
}

func (c *BudgetsController) SaveEdit(ctx context.Context, form BudgetForm) error {
	id, ok := c.edit.editing()
	if !ok {
		return nil
	}
	b, err := form.parse(c.period)
	if err != nil {
		c.notify.Error(core.UserMessage(err))
		return err
	}
	b.ID = id

	c.edit.cancel()
	if _, err := c.svc.Update(ctx, b); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			c.edit.restore(id)
		}
		if errors.Is(err, core.ErrConstraint) {
			c.notify.Error("Ya existe un presupuesto para esa categoría en ese mes.")
			return err
		}
		return c.fail(ctx, log.OpUpdate, err)
	}
	c.notify.Info("Presupuesto actualizado exitosamente.")
	return nil
}

func (c *BudgetsController) Delete(ctx context.Context, id int64) error {
	if c.edit.id == id {
		c.edit.cancel()
	}
	if err := c.svc.Delete(ctx, id); err != nil {
		return c.fail(ctx, log.OpDelete, err)
	}
	c.notify.Info("Presupuesto eliminado exitosamente.")
	return nil
}
