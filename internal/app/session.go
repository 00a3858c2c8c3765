// Package app wires one interactive session: it opens the store, seeds the
// predefined categories and builds the bus, services and controllers that
// share them.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgenet/internal/config"
	"budgenet/internal/controller"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/services"
	"budgenet/internal/storage"

	"github.com/google/uuid"
)

// Options configure a session. Zero values fall back to config.Load
// defaults, the wall clock and a discarding logger.
type Options struct {
	Config   *config.Config
	Logger   *log.Logger
	Now      func() time.Time
	Notifier controller.Notifier
}

// Session is the set of components sharing one store and one bus.
type Session struct {
	ID           string
	Store        *storage.Store
	Bus          *events.Bus
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService

	cfg      *config.Config
	log      *log.Logger
	now      func() time.Time
	notifier controller.Notifier
	closers  []interface{ Close() }
}

// NewSession opens the store and seeds the predefined categories. A store
// that cannot be opened aborts the session with core.ErrStorageUnavailable;
// nothing else is built.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Config == nil {
		opts.Config = config.Load()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	id := uuid.NewString()
	logger := log.OrDiscard(opts.Logger).With(log.FieldSession, id)
	appLog := logger.WithComponent(log.ComponentApp)

	store := storage.New(storage.Options{Path: opts.Config.DBPath, Logger: logger})
	if err := store.Open(ctx); err != nil {
		appLog.ErrorContext(ctx, "Session aborted, store unavailable",
			log.FieldPath, opts.Config.DBPath,
			log.FieldError, err)
		return nil, err
	}

	bus := events.NewBus(logger)
	s := &Session{
		ID:           id,
		Store:        store,
		Bus:          bus,
		Categories:   services.NewCategoryService(store.Categories(), bus, logger),
		Transactions: services.NewTransactionService(store.Transactions(), store.Categories(), bus, logger),
		Budgets:      services.NewBudgetService(store.Budgets(), store.Categories(), bus, logger),
		cfg:          opts.Config,
		log:          appLog,
		now:          opts.Now,
		notifier:     opts.Notifier,
	}

	if _, err := s.Categories.Seed(ctx, false); err != nil {
		store.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	version, err := store.Version(ctx)
	if err != nil {
		appLog.WarnContext(ctx, "Schema version unavailable", log.FieldError, err)
	}
	appLog.InfoContext(ctx, "Session started",
		log.FieldPath, opts.Config.DBPath,
		log.FieldVersion, version)
	return s, nil
}

func options[S any](s *Session, render func(S)) controller.Options[S] {
	return controller.Options[S]{
		Now:            s.now,
		Notifier:       s.notifier,
		Logger:         s.log,
		OnRender:       render,
		ProjectionSpan: s.cfg.ProjectionSpan,
		CacheSize:      s.cfg.ReportCacheSize,
		CacheTTL:       s.cfg.ReportCacheTTL,
	}
}

// The controller constructors below subscribe in call order; the bus
// delivers in that order too.

func (s *Session) CategoriesController(render func(controller.CategoriesSnapshot)) *controller.CategoriesController {
	c := controller.NewCategoriesController(s.Categories, s.Bus, options(s, render))
	s.closers = append(s.closers, c)
	return c
}

func (s *Session) TransactionsController(render func(controller.TransactionsSnapshot)) *controller.TransactionsController {
	c := controller.NewTransactionsController(s.Transactions, s.Categories, s.Bus, options(s, render))
	s.closers = append(s.closers, c)
	return c
}

func (s *Session) BudgetsController(render func(controller.BudgetsSnapshot)) *controller.BudgetsController {
	c := controller.NewBudgetsController(s.Budgets, s.Transactions, s.Categories, s.Bus, options(s, render))
	s.closers = append(s.closers, c)
	return c
}

func (s *Session) DashboardController(render func(controller.DashboardSnapshot)) *controller.DashboardController {
	c := controller.NewDashboardController(s.Transactions, s.Categories, s.Budgets, s.Bus, options(s, render))
	s.closers = append(s.closers, c)
	return c
}

// Close unsubscribes every controller and closes the store.
func (s *Session) Close() error {
	for _, c := range s.closers {
		c.Close()
	}
	s.closers = nil
	var errs []error
	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	s.log.Info("Session closed")
	return errors.Join(errs...)
}
