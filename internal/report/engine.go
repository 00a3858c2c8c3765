// Package report derives budget comparisons, totals and time series from
// already fetched records. Nothing here touches the store or keeps state;
// every function is a plain transformation of its arguments.
//
// Amounts are summed at full precision. Rounding is left to display code.
package report

import (
	"strings"
	"time"

	"budgenet/internal/core"

	"github.com/shopspring/decimal"
)

// UncategorizedName labels transactions whose category can no longer be
// resolved.
const UncategorizedName = "Sin categoría"

// DefaultProjectionSpan is the number of months shown on each side of the
// projection center.
const DefaultProjectionSpan = 6

type Status string

const (
	StatusOK          Status = "ok"
	StatusExactlyUsed Status = "exactly-used"
	StatusExceeded    Status = "exceeded"
	StatusNoBudget    Status = "no-budget-defined"
)

type CategorySum struct {
	CategoryID int64
	Name       string
	Total      decimal.Decimal
}

type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func (t Totals) Balance() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// BalanceSeries holds income minus expense per month of one year. Values[0]
// is January. Visible is the prefix of Values that should be shown.
type BalanceSeries struct {
	Year    int
	Values  [12]decimal.Decimal
	Visible []decimal.Decimal
}

type ComparisonRow struct {
	CategoryID int64
	Name       string
	Estimated  decimal.Decimal
	Actual     decimal.Decimal
}

// Comparison lists the budgets of a period next to what was actually spent.
// Categories with spending but no budget are kept apart in Unbudgeted.
type Comparison struct {
	Period     core.Period
	Rows       []ComparisonRow
	Unbudgeted []ComparisonRow
}

type Projection struct {
	Center    core.Period
	Periods   []core.Period
	Labels    []string
	Estimated []decimal.Decimal
	Actual    []decimal.Decimal
}

type CategoryStatus struct {
	CategoryID int64
	Name       string
	Estimated  decimal.Decimal
	Actual     decimal.Decimal
	Remaining  decimal.Decimal
	Status     Status
}

type StatusReport struct {
	Period           core.Period
	OverallEstimated decimal.Decimal
	OverallActual    decimal.Decimal
	PerCategory      []CategoryStatus
}

func (r StatusReport) OverallRemaining() decimal.Decimal {
	return r.OverallEstimated.Sub(r.OverallActual)
}

// categoryNames indexes category names by id.
func categoryNames(cats []core.Category) map[int64]string {
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}

// resolveName prefers the live category name, then the name captured when
// the transaction was saved.
func resolveName(names map[int64]string, id int64, saved string) string {
	if name, ok := names[id]; ok {
		return name
	}
	if saved = strings.TrimSpace(saved); saved != "" {
		return saved
	}
	return UncategorizedName
}

// SumByCategory totals the transactions of one type in a period, grouped by
// category name in order of first appearance. Categories summing to zero are
// left out.
func SumByCategory(txs []core.Transaction, cats []core.Category, period core.Period, typ core.TransactionType) []CategorySum {
	names := categoryNames(cats)
	index := make(map[string]int)
	var sums []CategorySum

	for _, tx := range txs {
		if tx.Type != typ || !period.Contains(tx.Date) {
			continue
		}
		name := resolveName(names, tx.CategoryID, tx.CategoryName)
		i, ok := index[name]
		if !ok {
			i = len(sums)
			index[name] = i
			sums = append(sums, CategorySum{CategoryID: tx.CategoryID, Name: name})
		}
		sums[i].Total = sums[i].Total.Add(tx.Amount)
	}

	out := sums[:0]
	for _, s := range sums {
		if !s.Total.IsZero() {
			out = append(out, s)
		}
	}
	return out
}

func TotalsByType(txs []core.Transaction, period core.Period) Totals {
	var t Totals
	for _, tx := range txs {
		if !period.Contains(tx.Date) {
			continue
		}
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	return t
}

// MonthlyBalanceSeries computes the balance of every month of year. For the
// current year only the months up to now are visible, a past year shows all
// twelve and a future year none.
func MonthlyBalanceSeries(txs []core.Transaction, year int, now time.Time) BalanceSeries {
	s := BalanceSeries{Year: year}
	for i := range s.Values {
		s.Values[i] = decimal.Zero
	}
	for _, tx := range txs {
		if tx.Date.Year() != year {
			continue
		}
		m := tx.Date.Month() - 1
		switch tx.Type {
		case core.Income:
			s.Values[m] = s.Values[m].Add(tx.Amount)
		case core.Expense:
			s.Values[m] = s.Values[m].Sub(tx.Amount)
		}
	}

	visible := 0
	switch {
	case year < now.Year():
		visible = 12
	case year == now.Year():
		visible = int(now.Month())
	}
	s.Visible = append([]decimal.Decimal{}, s.Values[:visible]...)
	return s
}

// expenseByCategory sums the expenses of a period per category id, keeping
// the first saved name seen for each id.
func expenseByCategory(txs []core.Transaction, period core.Period) (map[int64]decimal.Decimal, map[int64]string, []int64) {
	sums := make(map[int64]decimal.Decimal)
	saved := make(map[int64]string)
	var order []int64
	for _, tx := range txs {
		if tx.Type != core.Expense || !period.Contains(tx.Date) {
			continue
		}
		if _, ok := sums[tx.CategoryID]; !ok {
			order = append(order, tx.CategoryID)
			saved[tx.CategoryID] = tx.CategoryName
		}
		sums[tx.CategoryID] = sums[tx.CategoryID].Add(tx.Amount)
	}
	return sums, saved, order
}

// BudgetComparison pairs each budget of the period with the expenses booked
// against its category. A budget with no spending compares against zero.
func BudgetComparison(budgets []core.Budget, txs []core.Transaction, cats []core.Category, period core.Period) Comparison {
	names := categoryNames(cats)
	spent, saved, order := expenseByCategory(txs, period)

	c := Comparison{Period: period}
	rowIndex := make(map[int64]int)
	for _, b := range budgets {
		if b.Period() != period {
			continue
		}
		if i, ok := rowIndex[b.CategoryID]; ok {
			c.Rows[i].Estimated = c.Rows[i].Estimated.Add(b.Amount)
			continue
		}
		rowIndex[b.CategoryID] = len(c.Rows)
		c.Rows = append(c.Rows, ComparisonRow{
			CategoryID: b.CategoryID,
			Name:       resolveName(names, b.CategoryID, saved[b.CategoryID]),
			Estimated:  b.Amount,
			Actual:     spent[b.CategoryID],
		})
	}

	for _, id := range order {
		if _, ok := rowIndex[id]; ok || spent[id].IsZero() {
			continue
		}
		c.Unbudgeted = append(c.Unbudgeted, ComparisonRow{
			CategoryID: id,
			Name:       resolveName(names, id, saved[id]),
			Estimated:  decimal.Zero,
			Actual:     spent[id],
		})
	}
	return c
}

// ExpenseProjection lays out 2*span+1 consecutive months centered on center
// with the budgeted and actual expense of each. A span of zero or less uses
// DefaultProjectionSpan.
func ExpenseProjection(budgets []core.Budget, txs []core.Transaction, center core.Period, span int) Projection {
	if span <= 0 {
		span = DefaultProjectionSpan
	}
	n := 2*span + 1
	p := Projection{
		Center:    center,
		Periods:   make([]core.Period, n),
		Labels:    make([]string, n),
		Estimated: make([]decimal.Decimal, n),
		Actual:    make([]decimal.Decimal, n),
	}

	slot := make(map[core.Period]int, n)
	for i := 0; i < n; i++ {
		period := center.Add(i - span)
		p.Periods[i] = period
		p.Labels[i] = PeriodLabel(period)
		p.Estimated[i] = decimal.Zero
		p.Actual[i] = decimal.Zero
		slot[period] = i
	}

	for _, b := range budgets {
		if i, ok := slot[b.Period()]; ok {
			p.Estimated[i] = p.Estimated[i].Add(b.Amount)
		}
	}
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		if i, ok := slot[tx.Date.Period()]; ok {
			p.Actual[i] = p.Actual[i].Add(tx.Amount)
		}
	}
	return p
}

func statusOf(estimated, actual decimal.Decimal) Status {
	switch {
	case estimated.IsZero():
		return StatusNoBudget
	case actual.GreaterThan(estimated):
		return StatusExceeded
	case actual.Equal(estimated):
		return StatusExactlyUsed
	default:
		return StatusOK
	}
}

// BudgetStatus reports, per category, how much of the period's budget is
// left. Categories with neither budget nor spending are omitted. Overall
// totals cover every listed category.
func BudgetStatus(budgets []core.Budget, txs []core.Transaction, cats []core.Category, period core.Period) StatusReport {
	cmp := BudgetComparison(budgets, txs, cats, period)
	r := StatusReport{
		Period:           period,
		OverallEstimated: decimal.Zero,
		OverallActual:    decimal.Zero,
	}

	rows := append(append([]ComparisonRow{}, cmp.Rows...), cmp.Unbudgeted...)
	for _, row := range rows {
		if row.Estimated.IsZero() && row.Actual.IsZero() {
			continue
		}
		r.PerCategory = append(r.PerCategory, CategoryStatus{
			CategoryID: row.CategoryID,
			Name:       row.Name,
			Estimated:  row.Estimated,
			Actual:     row.Actual,
			Remaining:  row.Estimated.Sub(row.Actual),
			Status:     statusOf(row.Estimated, row.Actual),
		})
		r.OverallEstimated = r.OverallEstimated.Add(row.Estimated)
		r.OverallActual = r.OverallActual.Add(row.Actual)
	}
	return r
}
