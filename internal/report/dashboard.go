package report

import (
	"slices"
	"time"

	"budgenet/internal/core"
)

// Input is the raw material of a dashboard.
type Input struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Budgets      []core.Budget
	Period       core.Period
	Now          time.Time
	// ProjectionSpan is the number of months on each side of Period.
	ProjectionSpan int
}

// Dashboard is every derived view of one period, computed in one pass.
type Dashboard struct {
	Period     core.Period
	Totals     Totals
	Expenses   []CategorySum
	Incomes    []CategorySum
	Balance    BalanceSeries
	Comparison Comparison
	Status     StatusReport
	Projection Projection
	Charts     []Chart
}

func BuildDashboard(in Input) Dashboard {
	d := Dashboard{
		Period:     in.Period,
		Totals:     TotalsByType(in.Transactions, in.Period),
		Expenses:   SumByCategory(in.Transactions, in.Categories, in.Period, core.Expense),
		Incomes:    SumByCategory(in.Transactions, in.Categories, in.Period, core.Income),
		Balance:    MonthlyBalanceSeries(in.Transactions, in.Period.Year, in.Now),
		Comparison: BudgetComparison(in.Budgets, in.Transactions, in.Categories, in.Period),
		Status:     BudgetStatus(in.Budgets, in.Transactions, in.Categories, in.Period),
		Projection: ExpenseProjection(in.Budgets, in.Transactions, in.Period, in.ProjectionSpan),
	}
	d.Charts = []Chart{
		ExpensesByCategoryChart(d.Expenses, d.Period),
		IncomesByCategoryChart(d.Incomes, d.Period),
		IncomeExpenseChart(d.Totals, d.Period),
		BalanceEvolutionChart(d.Balance),
		ProjectionChart(d.Projection),
	}
	return d
}

// Clone returns a copy that shares no slices with d.
func (d Dashboard) Clone() Dashboard {
	d.Expenses = slices.Clone(d.Expenses)
	d.Incomes = slices.Clone(d.Incomes)
	d.Balance.Visible = slices.Clone(d.Balance.Visible)
	d.Comparison.Rows = slices.Clone(d.Comparison.Rows)
	d.Comparison.Unbudgeted = slices.Clone(d.Comparison.Unbudgeted)
	d.Status.PerCategory = slices.Clone(d.Status.PerCategory)
	d.Projection.Periods = slices.Clone(d.Projection.Periods)
	d.Projection.Labels = slices.Clone(d.Projection.Labels)
	d.Projection.Estimated = slices.Clone(d.Projection.Estimated)
	d.Projection.Actual = slices.Clone(d.Projection.Actual)

	charts := make([]Chart, len(d.Charts))
	for i, c := range d.Charts {
		c.Labels = slices.Clone(c.Labels)
		sets := make([]Dataset, len(c.Datasets))
		for j, ds := range c.Datasets {
			ds.Data = slices.Clone(ds.Data)
			ds.Colors = slices.Clone(ds.Colors)
			sets[j] = ds
		}
		c.Datasets = sets
		charts[i] = c
	}
	d.Charts = charts
	return d
}
