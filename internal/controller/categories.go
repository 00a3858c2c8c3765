package controller

import (
	"context"
	"errors"
	"fmt"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/services"
)

type CategoriesSnapshot struct {
	Categories []core.Category
	EditingID  int64
}

// CategoriesController backs the category management screen.
type CategoriesController struct {
	screen
	svc        CategoryService
	render     func(CategoriesSnapshot)
	categories []core.Category
}

func NewCategoriesController(svc CategoryService, bus Subscriber, opts Options[CategoriesSnapshot]) *CategoriesController {
	opts = opts.resolve()
	c := &CategoriesController{
		screen: newScreen("categories", opts.Now, opts.Notifier, opts.Logger),
		svc:    svc,
		render: opts.OnRender,
	}
	c.subscribe(bus, func(ctx context.Context, _ events.Notification) {
		_ = c.Load(ctx)
	}, events.KindCategoriesUpdated, events.KindCategoryDeleted)
	return c
}

// Load re-fetches the category list and renders it.
func (c *CategoriesController) Load(ctx context.Context) error {
	cats, err := c.svc.List(ctx)
	if err != nil {
		return c.fail(ctx, log.OpList, err)
	}
	c.categories = cats
	if id, ok := c.edit.editing(); ok {
		if _, found := c.find(id); !found {
			c.edit.cancel()
		}
	}
	c.render(c.Snapshot())
	return nil
}

func (c *CategoriesController) Snapshot() CategoriesSnapshot {
	return CategoriesSnapshot{
		Categories: append([]core.Category(nil), c.categories...),
		EditingID:  c.edit.id,
	}
}

func (c *CategoriesController) find(id int64) (core.Category, bool) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return core.Category{}, false
}

func (c *CategoriesController) Add(ctx context.Context, name string) error {
	cat, err := c.svc.Add(ctx, name)
	if err != nil {
		if errors.Is(err, core.ErrConstraint) {
			c.notify.Error(fmt.Sprintf("La categoría %q ya existe. Por favor, elija un nombre diferente.", name))
			return err
		}
		return c.fail(ctx, log.OpCreate, err)
	}
	c.notify.Info(fmt.Sprintf("Categoría %q añadida exitosamente.", cat.Name))
	return nil
}

// StartEdit opens the rename form for id.
func (c *CategoriesController) StartEdit(ctx context.Context, id int64) error {
	if _, ok := c.find(id); !ok {
		return c.fail(ctx, log.OpUpdate, core.ErrNotFound)
	}
	c.startEdit(id)
	c.render(c.Snapshot())
	return nil
}

// SaveEdit renames the category being edited. An unchanged name closes the
// form without writing anything.
func (c *CategoriesController) SaveEdit(ctx context.Context, name string) error {
	id, ok := c.edit.editing()
	if !ok {
		return nil
	}
	if err := (core.Category{Name: name}).Validate(); err != nil {
		c.notify.Error(core.UserMessage(err))
		return err
	}

	c.edit.cancel()
	cat, err := c.svc.Rename(ctx, id, name)
	switch {
	case errors.Is(err, services.ErrNameUnchanged):
		c.notify.Info("El nombre no ha cambiado.")
		c.render(c.Snapshot())
		return nil
	case errors.Is(err, core.ErrConstraint):
		c.edit.restore(id)
		c.notify.Error(fmt.Sprintf("La categoría %q ya existe. Por favor, elija un nombre diferente.", name))
		return err
	case errors.Is(err, core.ErrNotFound):
		return c.fail(ctx, log.OpUpdate, err)
	case err != nil:
		c.edit.restore(id)
		return c.fail(ctx, log.OpUpdate, err)
	}
	c.notify.Info(fmt.Sprintf("Categoría %q actualizada exitosamente.", cat.Name))
	return nil
}

// Delete removes a category. Its transactions and budgets go with it.
func (c *CategoriesController) Delete(ctx context.Context, id int64) error {
	cat, _ := c.find(id)
	if err := c.svc.Delete(ctx, id); err != nil {
		return c.fail(ctx, log.OpDelete, err)
	}
	if cat.Name != "" {
		c.notify.Info(fmt.Sprintf("¡Categoría %q eliminada exitosamente!", cat.Name))
	}
	return nil
}

// Reset deletes every category and restores the predefined set.
func (c *CategoriesController) Reset(ctx context.Context) error {
	c.edit.cancel()
	if err := c.svc.Reset(ctx); err != nil {
		return c.fail(ctx, log.OpReset, err)
	}
	c.notify.Info("Categorías reestablecidas exitosamente a sus valores por defecto.")
	return nil
}
