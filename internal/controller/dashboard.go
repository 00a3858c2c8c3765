package controller

import (
	"context"

	"budgenet/internal/cache"
	"budgenet/internal/core"
	"budgenet/internal/events"
	"budgenet/internal/log"
	"budgenet/internal/report"
)

// DashboardSnapshot owns its dashboard; changing it does not touch the cache.
type DashboardSnapshot struct {
	Period    core.Period
	Dashboard report.Dashboard
	// Cached is true when the dashboard was served without re-reading the
	// store.
	Cached bool
}

// DashboardController backs the reports screen. Computed dashboards are
// kept per period until any notification arrives.
type DashboardController struct {
	screen
	txs     TransactionService
	cats    CategoryService
	budgets BudgetService
	render  func(DashboardSnapshot)
	span    int
	cache   cache.Cache[report.Dashboard]

	last DashboardSnapshot
}

func NewDashboardController(txs TransactionService, cats CategoryService, budgets BudgetService, bus Subscriber, opts Options[DashboardSnapshot]) *DashboardController {
	opts = opts.resolve()
	c := &DashboardController{
		screen:  newScreen("dashboard", opts.Now, opts.Notifier, opts.Logger),
		txs:     txs,
		cats:    cats,
		budgets: budgets,
		render:  opts.OnRender,
		span:    opts.ProjectionSpan,
		cache:   cache.NewLRUCache[report.Dashboard](opts.CacheSize, opts.CacheTTL),
	}
	c.subscribe(bus, func(ctx context.Context, n events.Notification) {
		c.cache.Purge()
		c.log.DebugContext(ctx, "Dashboard cache purged", log.FieldEvent, string(n.Kind()))
		_ = c.Load(ctx)
	})
	return c
}

// cacheKey includes the current month because the balance series hides
// months that have not happened yet.
func (c *DashboardController) cacheKey() string {
	return c.period.String() + "@" + core.PeriodOf(c.now()).String()
}

// Load renders the dashboard of the current period, computing it only when
// it is not cached.
func (c *DashboardController) Load(ctx context.Context) error {
	key := c.cacheKey()
	if d, ok := c.cache.Get(key); ok {
		c.last = DashboardSnapshot{Period: c.period, Dashboard: d, Cached: true}
		c.render(c.Snapshot())
		return nil
	}

	txs, err := c.txs.All(ctx)
	if err != nil {
		return c.fail(ctx, log.OpRender, err)
	}
	cats, err := c.cats.List(ctx)
	if err != nil {
		return c.fail(ctx, log.OpRender, err)
	}
	budgets, err := c.budgets.All(ctx)
	if err != nil {
		return c.fail(ctx, log.OpRender, err)
	}

	d := report.BuildDashboard(report.Input{
		Transactions:   txs,
		Categories:     cats,
		Budgets:        budgets,
		Period:         c.period,
		Now:            c.now(),
		ProjectionSpan: c.span,
	})
	c.cache.Set(key, d)
	fields := log.NewFields().WithPeriod(c.period.Month, c.period.Year)
	fields[log.FieldCount] = len(txs)
	c.log.DebugContext(ctx, "Dashboard computed", fields.ToSlice()...)

	c.last = DashboardSnapshot{Period: c.period, Dashboard: d}
	c.render(c.Snapshot())
	return nil
}

func (c *DashboardController) Snapshot() DashboardSnapshot {
	s := c.last
	s.Dashboard = s.Dashboard.Clone()
	return s
}

func (c *DashboardController) SetPeriod(ctx context.Context, p core.Period) error {
	if err := c.setPeriod(p); err != nil {
		c.notify.Error(core.UserMessage(err))
		return err
	}
	return c.Load(ctx)
}

func (c *DashboardController) NextMonth(ctx context.Context) error {
	return c.SetPeriod(ctx, c.period.Add(1))
}

func (c *DashboardController) PrevMonth(ctx context.Context) error {
	return c.SetPeriod(ctx, c.period.Add(-1))
}
