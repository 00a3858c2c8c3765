// Package controller holds per-screen state: the month being looked at, the
// record being edited and the collections last fetched. Controllers issue
// commands to the services and re-fetch whenever the session bus says
// something changed. They never draw anything; each render hands a snapshot
// to the OnRender callback.
package controller

import (
	"context"
	"time"

	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/report"
	"budgenet/internal/services"
	"budgenet/internal/storage"
)

// Notifier shows short messages to the user.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Info(string)  {}
func (nopNotifier) Error(string) {}

// Options configure a controller. They are resolved once at construction.
type Options[S any] struct {
	Now      func() time.Time
	Notifier Notifier
	Logger   *log.Logger
	OnRender func(S)

	// Used by the dashboard only.
	ProjectionSpan int
	CacheSize      int
	CacheTTL       time.Duration
}

func (o Options[S]) resolve() Options[S] {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	o.Logger = log.OrDiscard(o.Logger).WithComponent(log.ComponentController)
	if o.OnRender == nil {
		o.OnRender = func(S) {}
	}
	if o.ProjectionSpan <= 0 {
		o.ProjectionSpan = report.DefaultProjectionSpan
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 24
	}
	if o.CacheTTL < 0 {
		o.CacheTTL = 0
	}
	return o
}

// Subscriber is satisfied by *events.Bus.
type Subscriber interface {
	Subscribe(h events.Handler, kinds ...events.Kind) *events.Subscription
}

type CategoryService interface {
	List(ctx context.Context) ([]core.Category, error)
	Add(ctx context.Context, name string) (core.Category, error)
	Rename(ctx context.Context, id int64, name string) (core.Category, error)
	Delete(ctx context.Context, id int64) error
	Reset(ctx context.Context) error
}

type TransactionService interface {
	List(ctx context.Context, f storage.Filter) ([]core.Transaction, error)
	All(ctx context.Context) ([]core.Transaction, error)
	Add(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, t core.Transaction, mode services.UpdateMode) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
	DeleteByCategory(ctx context.Context, categoryID int64) (int, error)
}

type BudgetService interface {
	All(ctx context.Context) ([]core.Budget, error)
	ForPeriod(ctx context.Context, p core.Period) ([]core.Budget, error)
	Add(ctx context.Context, b core.Budget) (core.Budget, error)
	Update(ctx context.Context, b core.Budget) (core.Budget, error)
	Delete(ctx context.Context, id int64) error
	DeleteByCategory(ctx context.Context, categoryID int64) (int, error)
}

// editState tracks which record, if any, is being edited. Zero means idle.
type editState struct {
	id int64
}

// start begins editing id. Starting a different record while one is open
// drops the open edit first; starting the same one again does nothing.
// It reports the id of the edit that was dropped, if any.
func (e *editState) start(id int64) (dropped int64) {
	if e.id == id {
		return 0
	}
	dropped = e.id
	e.id = id
	return dropped
}

func (e *editState) cancel() { e.id = 0 }

func (e *editState) editing() (int64, bool) { return e.id, e.id != 0 }

func (e *editState) restore(id int64) { e.id = id }

// screen is the state every controller shares.
type screen struct {
	name   string
	log    *log.Logger
	now    func() time.Time
	notify Notifier
	period core.Period
	edit   editState
	subs   []*events.Subscription
}

func newScreen(name string, now func() time.Time, notify Notifier, logger *log.Logger) screen {
	return screen{
		name:   name,
		log:    logger.With("screen", name),
		now:    now,
		notify: notify,
		period: core.PeriodOf(now()),
	}
}

func (s *screen) Period() core.Period { return s.period }

// EditingID returns the id of the record being edited, or zero.
func (s *screen) EditingID() int64 { return s.edit.id }

// CancelEdit returns to idle without saving.
func (s *screen) CancelEdit() { s.edit.cancel() }

func (s *screen) startEdit(id int64) {
	if dropped := s.edit.start(id); dropped != 0 {
		s.log.Debug("Open edit dropped", log.FieldID, dropped)
	}
}

// fail logs err and shows it to the user. It returns err so callers can
// stop early.
func (s *screen) fail(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "Operation failed", log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	s.notify.Error(core.UserMessage(err))
	return err
}

func (s *screen) setPeriod(p core.Period) error {
	if err := p.Validate(); err != nil {
		return core.NewValidationError("period", err.Error())
	}
	s.period = p
	return nil
}

func (s *screen) subscribe(bus Subscriber, h events.Handler, kinds ...events.Kind) {
	s.subs = append(s.subs, bus.Subscribe(h, kinds...))
}

// Close removes the controller from the bus.
func (s *screen) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}
