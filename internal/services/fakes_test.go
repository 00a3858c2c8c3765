package services

import (
	"context"
	"reflect"
	"sort"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/storage"
)

// fakeCollection is an in-memory store that records every call it gets.
type fakeCollection[T any] struct {
	rows  map[int64]T
	next  int64
	calls []string

	id    func(T) int64
	setID func(*T, int64)
	key   func(T, string) any
}

func (f *fakeCollection[T]) record(op string) { f.calls = append(f.calls, op) }

func (f *fakeCollection[T]) called(op string) bool {
	for _, c := range f.calls {
		if c == op {
			return true
		}
	}
	return false
}

func (f *fakeCollection[T]) Add(_ context.Context, rec T) (int64, error) {
	f.record("Add")
	id := f.id(rec)
	if id == 0 {
		f.next++
		id = f.next
		f.setID(&rec, id)
	}
	f.rows[id] = rec
	return id, nil
}

func (f *fakeCollection[T]) Get(_ context.Context, id int64) (T, bool, error) {
	f.record("Get")
	rec, ok := f.rows[id]
	return rec, ok, nil
}

func (f *fakeCollection[T]) GetAll(_ context.Context) ([]T, error) {
	f.record("GetAll")
	return f.sorted(), nil
}

func (f *fakeCollection[T]) sorted() []T {
	ids := make([]int64, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.rows[id])
	}
	return out
}

func (f *fakeCollection[T]) Put(_ context.Context, rec T) (int64, error) {
	f.record("Put")
	f.rows[f.id(rec)] = rec
	return f.id(rec), nil
}

func (f *fakeCollection[T]) Update(_ context.Context, rec T) error {
	f.record("Update")
	f.rows[f.id(rec)] = rec
	return nil
}

func (f *fakeCollection[T]) Delete(_ context.Context, id int64) error {
	f.record("Delete")
	delete(f.rows, id)
	return nil
}

func (f *fakeCollection[T]) FindByIndex(_ context.Context, index string, value any) ([]T, error) {
	f.record("FindByIndex")
	var out []T
	for _, rec := range f.sorted() {
		if reflect.DeepEqual(f.key(rec, index), value) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeCollection[T]) DeleteAllByIndex(_ context.Context, index string, value any) (int, error) {
	f.record("DeleteAllByIndex")
	n := 0
	for id, rec := range f.rows {
		if reflect.DeepEqual(f.key(rec, index), value) {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func newFakeCategories() *fakeCollection[core.Category] {
	return &fakeCollection[core.Category]{
		rows:  map[int64]core.Category{},
		id:    func(c core.Category) int64 { return c.ID },
		setID: func(c *core.Category, id int64) { c.ID = id },
		key:   func(c core.Category, _ string) any { return c.Name },
	}
}

type fakeTransactions struct {
	*fakeCollection[core.Transaction]
}

func (f fakeTransactions) Query(ctx context.Context, filter storage.Filter) ([]core.Transaction, error) {
	all, _ := f.GetAll(ctx)
	var out []core.Transaction
	for _, t := range all {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func newFakeTransactions() fakeTransactions {
	return fakeTransactions{&fakeCollection[core.Transaction]{
		rows:  map[int64]core.Transaction{},
		id:    func(t core.Transaction) int64 { return t.ID },
		setID: func(t *core.Transaction, id int64) { t.ID = id },
		key: func(t core.Transaction, index string) any {
			if index == storage.IndexCategoryID {
				return t.CategoryID
			}
			return nil
		},
	}}
}

func newFakeBudgets() *fakeCollection[core.Budget] {
	return &fakeCollection[core.Budget]{
		rows:  map[int64]core.Budget{},
		id:    func(b core.Budget) int64 { return b.ID },
		setID: func(b *core.Budget, id int64) { b.ID = id },
		key: func(b core.Budget, index string) any {
			switch index {
			case storage.IndexCategoryID:
				return b.CategoryID
			case storage.IndexPeriod:
				return []any{b.Month, b.Year}
			}
			return nil
		},
	}
}

type recordingPublisher struct {
	got []events.Notification
}

func (r *recordingPublisher) Publish(_ context.Context, n events.Notification) {
	r.got = append(r.got, n)
}

func (r *recordingPublisher) kinds() []events.Kind {
	out := make([]events.Kind, len(r.got))
	for i, n := range r.got {
		out[i] = n.Kind()
	}
	return out
}

func seededCategories() *fakeCollection[core.Category] {
	cats := newFakeCategories()
	for _, c := range core.PredefinedCategories {
		cats.rows[c.ID] = c
	}
	return cats
}
