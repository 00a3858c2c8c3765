package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"budgenet/internal/app"
	"budgenet/internal/controller"
	"budgenet/internal/core"
	"budgenet/internal/report"
	"budgenet/internal/storage"
)

type env struct {
	ctx     context.Context
	session *app.Session
	out     io.Writer
	now     func() time.Time
	span    int
}

type command struct {
	name  string
	usage string
	run   func(e *env, args []string) error
}

var commands = []command{
	{"seed", "seed [-force]", runSeed},
	{"reset-categories", "reset-categories", runResetCategories},
	{"categories", "categories", runCategories},
	{"add-category", "add-category NAME", runAddCategory},
	{"add-tx", "add-tx -amount N -category C [-type expense|income] [-date YYYY-MM-DD] [-desc TEXT]", runAddTransaction},
	{"txs", "txs [-month M] [-year Y] [-type T] [-category C] [-search TEXT]", runTransactions},
	{"set-budget", "set-budget -category C -amount N [-month M] [-year Y]", runSetBudget},
	{"status", "status [-month M] [-year Y]", runStatus},
	{"dashboard", "dashboard [-month M] [-year Y]", runDashboard},
	{"projection", "projection [-month M] [-year Y] [-span N]", runProjection},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

type periodFlags struct {
	month, year *int
}

func addPeriodFlags(fs *flag.FlagSet) periodFlags {
	return periodFlags{
		month: fs.Int("month", 0, "month 1-12 (default: current)"),
		year:  fs.Int("year", 0, "year (default: current)"),
	}
}

func (e *env) period(f periodFlags) core.Period {
	p := core.PeriodOf(e.now())
	if *f.month != 0 {
		p.Month = *f.month
	}
	if *f.year != 0 {
		p.Year = *f.year
	}
	return p
}

func (e *env) category(input string) (core.Category, error) {
	cats, err := e.session.Categories.List(e.ctx)
	if err != nil {
		return core.Category{}, err
	}
	return resolveCategory(cats, input)
}

func runSeed(e *env, args []string) error {
	fs := newFlagSet("seed", e.out)
	force := fs.Bool("force", false, "restore predefined categories to their original names")
	if err := fs.Parse(args); err != nil {
		return err
	}
	n, err := e.session.Categories.Seed(e.ctx, *force)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%d categorías predefinidas escritas.\n", n)
	return nil
}

func runResetCategories(e *env, _ []string) error {
	return e.session.CategoriesController(nil).Reset(e.ctx)
}

func runCategories(e *env, _ []string) error {
	var snap controller.CategoriesSnapshot
	ctl := e.session.CategoriesController(func(s controller.CategoriesSnapshot) { snap = s })
	if err := ctl.Load(e.ctx); err != nil {
		return err
	}
	renderCategories(e.out, snap.Categories)
	return nil
}

func runAddCategory(e *env, args []string) error {
	name := strings.Join(args, " ")
	return e.session.CategoriesController(nil).Add(e.ctx, name)
}

func runAddTransaction(e *env, args []string) error {
	fs := newFlagSet("add-tx", e.out)
	typ := fs.String("type", string(core.Expense), "expense or income")
	amount := fs.String("amount", "", "amount, dot or comma decimals")
	date := fs.String("date", "", "date (default: now)")
	category := fs.String("category", "", "category name or id")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cat, err := e.category(*category)
	if err != nil {
		return err
	}
	return e.session.TransactionsController(nil).Add(e.ctx, controller.TransactionForm{
		Type:        *typ,
		Amount:      *amount,
		Date:        *date,
		CategoryID:  cat.ID,
		Description: *desc,
	})
}

func runTransactions(e *env, args []string) error {
	fs := newFlagSet("txs", e.out)
	pf := addPeriodFlags(fs)
	typ := fs.String("type", "", "expense or income")
	category := fs.String("category", "", "category name or id")
	search := fs.String("search", "", "text in description or category")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var filter storage.Filter
	if *typ != "" {
		t, err := core.ParseTransactionType(*typ)
		if err != nil {
			return err
		}
		filter.Type = t
	}
	if *category != "" {
		cat, err := e.category(*category)
		if err != nil {
			return err
		}
		filter.CategoryID = cat.ID
	}
	filter.SearchTerm = *search

	var snap controller.TransactionsSnapshot
	ctl := e.session.TransactionsController(func(s controller.TransactionsSnapshot) { snap = s })
	if err := ctl.SetPeriod(e.ctx, e.period(pf)); err != nil {
		return err
	}
	if filter != (storage.Filter{}) {
		if err := ctl.SetFilter(e.ctx, filter); err != nil {
			return err
		}
	}
	renderTransactions(e.out, snap.Period, snap.Transactions, snap.Totals)
	return nil
}

// runSetBudget adds the budget of a category for a month, or updates it
// when one already exists.
func runSetBudget(e *env, args []string) error {
	fs := newFlagSet("set-budget", e.out)
	pf := addPeriodFlags(fs)
	category := fs.String("category", "", "category name or id")
	amount := fs.String("amount", "", "budgeted amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cat, err := e.category(*category)
	if err != nil {
		return err
	}

	var snap controller.BudgetsSnapshot
	ctl := e.session.BudgetsController(func(s controller.BudgetsSnapshot) { snap = s })
	if err := ctl.SetPeriod(e.ctx, e.period(pf)); err != nil {
		return err
	}
	form := controller.BudgetForm{CategoryID: cat.ID, Amount: *amount}
	for _, b := range snap.Budgets {
		if b.CategoryID != cat.ID {
			continue
		}
		if err := ctl.StartEdit(e.ctx, b.ID); err != nil {
			return err
		}
		if err := ctl.SaveEdit(e.ctx, form); err != nil {
			return err
		}
		renderStatus(e.out, snap.Status)
		return nil
	}
	if err := ctl.Add(e.ctx, form); err != nil {
		return err
	}
	renderStatus(e.out, snap.Status)
	return nil
}

func runStatus(e *env, args []string) error {
	fs := newFlagSet("status", e.out)
	pf := addPeriodFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	var snap controller.BudgetsSnapshot
	ctl := e.session.BudgetsController(func(s controller.BudgetsSnapshot) { snap = s })
	if err := ctl.SetPeriod(e.ctx, e.period(pf)); err != nil {
		return err
	}
	renderStatus(e.out, snap.Status)
	return nil
}

func runDashboard(e *env, args []string) error {
	fs := newFlagSet("dashboard", e.out)
	pf := addPeriodFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	var snap controller.DashboardSnapshot
	ctl := e.session.DashboardController(func(s controller.DashboardSnapshot) { snap = s })
	if err := ctl.SetPeriod(e.ctx, e.period(pf)); err != nil {
		return err
	}
	renderDashboard(e.out, snap.Dashboard)
	return nil
}

func runProjection(e *env, args []string) error {
	fs := newFlagSet("projection", e.out)
	pf := addPeriodFlags(fs)
	span := fs.Int("span", e.span, "months on each side of the center month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	center := e.period(pf)
	if err := center.Validate(); err != nil {
		return core.NewValidationError("period", err.Error())
	}
	budgets, err := e.session.Budgets.All(e.ctx)
	if err != nil {
		return err
	}
	txs, err := e.session.Transactions.All(e.ctx)
	if err != nil {
		return err
	}
	renderProjection(e.out, report.ExpenseProjection(budgets, txs, center, *span))
	return nil
}
