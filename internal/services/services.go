// Package services is the command layer: it validates input, writes to the
// store and then tells the session what changed. Store writes happen first;
// notifications are published only once a write has succeeded.
package services

import (
	"context"
	"errors"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/storage"
)

// ErrNameUnchanged is returned by a rename that would not change anything.
var ErrNameUnchanged = errors.New("name unchanged")

// Publisher is satisfied by *events.Bus.
type Publisher interface {
	Publish(ctx context.Context, n events.Notification)
}

type CategoryStore interface {
	Add(ctx context.Context, c core.Category) (int64, error)
	Get(ctx context.Context, id int64) (core.Category, bool, error)
	GetAll(ctx context.Context) ([]core.Category, error)
	Put(ctx context.Context, c core.Category) (int64, error)
	Update(ctx context.Context, c core.Category) error
	Delete(ctx context.Context, id int64) error
}

type TransactionStore interface {
	Add(ctx context.Context, t core.Transaction) (int64, error)
	Get(ctx context.Context, id int64) (core.Transaction, bool, error)
	GetAll(ctx context.Context) ([]core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) error
	Delete(ctx context.Context, id int64) error
	DeleteAllByIndex(ctx context.Context, index string, value any) (int, error)
	Query(ctx context.Context, f storage.Filter) ([]core.Transaction, error)
}

type BudgetStore interface {
	Add(ctx context.Context, b core.Budget) (int64, error)
	Get(ctx context.Context, id int64) (core.Budget, bool, error)
	GetAll(ctx context.Context) ([]core.Budget, error)
	Update(ctx context.Context, b core.Budget) error
	Delete(ctx context.Context, id int64) error
	FindByIndex(ctx context.Context, index string, value any) ([]core.Budget, error)
	DeleteAllByIndex(ctx context.Context, index string, value any) (int, error)
}

// notifier wraps an optional publisher. Without one, changes are still
// saved but nobody hears about them.
type notifier struct {
	pub Publisher
	log *log.Logger
}

func (n notifier) publish(ctx context.Context, msg events.Notification) {
	if n.pub == nil {
		n.log.WarnContext(ctx, "Publisher not available, skipping notification", log.FieldEvent, string(msg.Kind()))
		return
	}
	n.pub.Publish(ctx, msg)
}

// categoryName looks up the current name of a category. An unknown id is a
// validation error so nothing is saved against a category that is gone.
func categoryName(ctx context.Context, cats CategoryStore, id int64) (string, error) {
	c, ok, err := cats.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", core.NewValidationError("categoryId", "category does not exist")
	}
	return c.Name, nil
}
