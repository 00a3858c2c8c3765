package controller

import (
	"context"
	"errors"
	"strings"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/report"
	"budgenet/internal/services"
	"budgenet/internal/storage"
)

// TransactionForm carries raw form input. Date may be empty: a new
// transaction then takes the current time, and an edit keeps its stored
// timestamp.
type TransactionForm struct {
	Type        string
	Amount      string
	Date        string
	CategoryID  int64
	Description string
}

func (f TransactionForm) parse(now func() core.Date) (core.Transaction, error) {
	var errs core.ValidationErrors
	typ, err := core.ParseTransactionType(f.Type)
	if err != nil {
		errs.Add(err)
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		errs.Add(core.NewValidationError("amount", err.Error()))
	}
	date := now()
	if strings.TrimSpace(f.Date) != "" {
		if date, err = core.ParseDate(f.Date); err != nil {
			errs.Add(err)
		}
	}
	if err := errs.OrNil(); err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Type:        typ,
		Amount:      amount,
		Date:        date,
		CategoryID:  f.CategoryID,
		Description: strings.TrimSpace(f.Description),
	}
	return t, t.Validate()
}

type TransactionsSnapshot struct {
	Period       core.Period
	Filter       storage.Filter
	Transactions []core.Transaction
	Categories   []core.Category
	Totals       report.Totals
	EditingID    int64
}

// TransactionsController backs the transaction list of one month. It also
// removes the transactions of a deleted category.
type TransactionsController struct {
	screen
	svc    TransactionService
	cats   CategoryService
	render func(TransactionsSnapshot)

	filter       storage.Filter
	transactions []core.Transaction
	categories   []core.Category
}

func NewTransactionsController(svc TransactionService, cats CategoryService, bus Subscriber, opts Options[TransactionsSnapshot]) *TransactionsController {
	opts = opts.resolve()
	c := &TransactionsController{
		screen: newScreen("transactions", opts.Now, opts.Notifier, opts.Logger),
		svc:    svc,
		cats:   cats,
		render: opts.OnRender,
	}
	c.subscribe(bus, c.onCategoryDeleted, events.KindCategoryDeleted)
	c.subscribe(bus, func(ctx context.Context, _ events.Notification) {
		_ = c.Load(ctx)
	}, events.KindTransactionsUpdated, events.KindCategoriesUpdated)
	return c
}

func (c *TransactionsController) onCategoryDeleted(ctx context.Context, n events.Notification) {
	deleted, ok := n.(events.CategoryDeleted)
	if !ok {
		return
	}
	count, err := c.svc.DeleteByCategory(ctx, deleted.CategoryID)
	if err != nil {
		_ = c.fail(ctx, log.OpCascade, err)
		return
	}
	c.log.InfoContext(ctx, "Category transactions removed",
		log.FieldCategoryID, deleted.CategoryID,
		log.FieldCount, count)
	if count == 0 {
		_ = c.Load(ctx)
	}
}

// Load re-fetches categories and the filtered transactions of the current
// period, then renders.
func (c *TransactionsController) Load(ctx context.Context) error {
	cats, err := c.cats.List(ctx)
	if err != nil {
		return c.fail(ctx, log.OpList, err)
	}
	txs, err := c.svc.List(ctx, c.filter)
	if err != nil {
		return c.fail(ctx, log.OpList, err)
	}
	c.categories = cats
	c.transactions = c.transactions[:0]
	for _, t := range txs {
		if c.period.Contains(t.Date) {
			c.transactions = append(c.transactions, t)
		}
	}
	if id, ok := c.edit.editing(); ok {
		if _, found := c.find(id); !found {
			c.edit.cancel()
		}
	}
	c.render(c.Snapshot())
	return nil
}

func (c *TransactionsController) Snapshot() TransactionsSnapshot {
	txs := append([]core.Transaction(nil), c.transactions...)
	return TransactionsSnapshot{
		Period:       c.period,
		Filter:       c.filter,
		Transactions: txs,
		Categories:   append([]core.Category(nil), c.categories...),
		Totals:       report.TotalsByType(txs, c.period),
		EditingID:    c.edit.id,
	}
}

func (c *TransactionsController) find(id int64) (core.Transaction, bool) {
	for _, t := range c.transactions {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

func (c *TransactionsController) SetFilter(ctx context.Context, f storage.Filter) error {
	c.filter = f
	return c.Load(ctx)
}

func (c *TransactionsController) SetPeriod(ctx context.Context, p core.Period) error {
	if err := c.setPeriod(p); err != nil {
		c.notify.Error(core.UserMessage(err))
		return err
	}
	c.edit.cancel()
	return c.Load(ctx)
}

func (c *TransactionsController) NextMonth(ctx context.Context) error {
	return c.SetPeriod(ctx, c.period.Add(1))
}

func (c *TransactionsController) PrevMonth(ctx context.Context) error {
	return c.SetPeriod(ctx, c.period.Add(-1))
}

func (c *TransactionsController) today() core.Date {
	return core.Date{Time: c.now()}
}

// Add saves a new transaction. Invalid input is reported and never stored.
func (c *TransactionsController) Add(ctx context.Context, form TransactionForm) error {
	t, err := form.parse(c.today)
	if err != nil {
		c.notify.Error(core.UserMessage(err))
		return err
	}
	if _, err := c.svc.Add(ctx, t); err != nil {
		return c.fail(ctx, log.OpCreate, err)
	}
	c.notify.Info("Transacción guardada exitosamente.")
	return nil
}

func (c *TransactionsController) StartEdit(ctx context.Context, id int64) error {
	if _, ok := c.find(id); !ok {
		return c.fail(ctx, log.OpUpdate, core.ErrNotFound)
	}
	c.startEdit(id)
	c.render(c.Snapshot())
	return nil
}

// SaveEdit stores the form over the transaction being edited. When the form
// has no date the stored timestamp is kept.
func (c *TransactionsController) SaveEdit(ctx context.Context, form TransactionForm) error {
	id, ok := c.edit.editing()
	if !ok {
		return nil
	}
	t, err := form.parse(c.today)
	if err != nil {
		c.notify.Error(core.UserMessage(err))
		return err
	}
	t.ID = id
	mode := services.ReplaceDate
	if strings.TrimSpace(form.Date) == "" {
		mode = services.PreserveDate
	}

	c.edit.cancel()
	if _, err := c.svc.Update(ctx, t, mode); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			c.edit.restore(id)
		}
		return c.fail(ctx, log.OpUpdate, err)
	}
	c.notify.Info("Transacción actualizada exitosamente.")
	return nil
}

func (c *TransactionsController) Delete(ctx context.Context, id int64) error {
	if c.edit.id == id {
		c.edit.cancel()
	}
	if err := c.svc.Delete(ctx, id); err != nil {
		return c.fail(ctx, log.OpDelete, err)
	}
	c.notify.Info("Transacción eliminada exitosamente.")
	return nil
}
