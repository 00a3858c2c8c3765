package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(nil)
	var got []string

	bus.Subscribe(func(_ context.Context, n Notification) { got = append(got, "a:"+string(n.Kind())) })
	bus.Subscribe(func(_ context.Context, n Notification) { got = append(got, "b:"+string(n.Kind())) })

	bus.Publish(context.Background(), TransactionsUpdated{})
	assert.Equal(t, []string{"a:transactions-updated", "b:transactions-updated"}, got)
}

func TestSubscribeFiltersByKind(t *testing.T) {
	bus := NewBus(nil)
	var deleted []int64
	calls := 0

	bus.Subscribe(func(_ context.Context, n Notification) {
		calls++
		if d, ok := n.(CategoryDeleted); ok {
			deleted = append(deleted, d.CategoryID)
		}
	}, KindCategoryDeleted)

	ctx := context.Background()
	bus.Publish(ctx, CategoriesUpdated{})
	bus.Publish(ctx, BudgetsUpdated{})
	bus.Publish(ctx, CategoryDeleted{CategoryID: 7})

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{7}, deleted)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	sub := bus.Subscribe(func(context.Context, Notification) { calls++ })
	other := bus.Subscribe(func(context.Context, Notification) {})
	require.NotEqual(t, sub.Token(), other.Token())
	require.Equal(t, 2, bus.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 1, bus.Len())

	bus.Publish(context.Background(), BudgetsUpdated{})
	assert.Zero(t, calls)
}

func TestHandlersMayPublish(t *testing.T) {
	bus := NewBus(nil)
	var order []Kind

	bus.Subscribe(func(ctx context.Context, n Notification) {
		order = append(order, n.Kind())
		if n.Kind() == KindCategoryDeleted {
			bus.Publish(ctx, TransactionsUpdated{})
		}
	})

	bus.Publish(context.Background(), CategoryDeleted{CategoryID: 3})
	assert.Equal(t, []Kind{KindCategoryDeleted, KindTransactionsUpdated}, order)
}
