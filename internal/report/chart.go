package report

import (
	"fmt"
	"strings"

	"budgenet/internal/core"

	"github.com/shopspring/decimal"
)

type ChartKind string

const (
	KindPie  ChartKind = "pie"
	KindBar  ChartKind = "bar"
	KindLine ChartKind = "line"
)

// Chart is everything a renderer needs to draw one chart. When Empty is set
// the renderer shows EmptyMessage instead.
type Chart struct {
	Kind         ChartKind
	Title        string
	Labels       []string
	Datasets     []Dataset
	Empty        bool
	EmptyMessage string
}

type Dataset struct {
	Label  string
	Data   []decimal.Decimal
	Colors []string
}

var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var monthAbbr = [12]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

var palette = []string{
	"rgba(255, 99, 132, 0.8)",
	"rgba(54, 162, 235, 0.8)",
	"rgba(255, 206, 86, 0.8)",
	"rgba(75, 192, 192, 0.8)",
	"rgba(153, 102, 255, 0.8)",
	"rgba(255, 159, 64, 0.8)",
	"rgba(199, 199, 199, 0.8)",
	"rgba(83, 102, 255, 0.8)",
}

const (
	incomeColor  = "rgba(75, 192, 192, 0.8)"
	expenseColor = "rgba(255, 99, 132, 0.8)"
	balanceColor = "rgba(54, 162, 235, 1)"
)

// MonthName returns the capitalized Spanish name of month m (1-12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	name := monthNames[m-1]
	return strings.ToUpper(name[:1]) + name[1:]
}

// PeriodLabel renders a period as "Ene 2024".
func PeriodLabel(p core.Period) string {
	if p.Month < 1 || p.Month > 12 {
		return p.String()
	}
	return fmt.Sprintf("%s %d", monthAbbr[p.Month-1], p.Year)
}

func periodTitle(p core.Period) string {
	return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
}

func colors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = palette[i%len(palette)]
	}
	return out
}

func allZero(values []decimal.Decimal) bool {
	for _, v := range values {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

func categoryChart(sums []CategorySum, title, label, empty string) Chart {
	c := Chart{Kind: KindPie, Title: title}
	if len(sums) == 0 {
		c.Empty = true
		c.EmptyMessage = empty
		return c
	}
	data := make([]decimal.Decimal, len(sums))
	c.Labels = make([]string, len(sums))
	for i, s := range sums {
		c.Labels[i] = s.Name
		data[i] = s.Total
	}
	c.Datasets = []Dataset{{Label: label, Data: data, Colors: colors(len(sums))}}
	return c
}

// ExpensesByCategoryChart is a pie of the period's expenses per category.
func ExpensesByCategoryChart(sums []CategorySum, period core.Period) Chart {
	return categoryChart(sums,
		"Egresos - "+periodTitle(period),
		"Egresos",
		"No hay egresos registrados para este mes.")
}

// IncomesByCategoryChart is a pie of the period's incomes per category.
func IncomesByCategoryChart(sums []CategorySum, period core.Period) Chart {
	return categoryChart(sums,
		"Ingresos - "+periodTitle(period),
		"Ingresos",
		"No hay ingresos registrados para este mes.")
}

// IncomeExpenseChart puts the period's income and expense totals side by side.
func IncomeExpenseChart(t Totals, period core.Period) Chart {
	c := Chart{
		Kind:   KindBar,
		Title:  "Ingresos vs. Egresos - " + periodTitle(period),
		Labels: []string{"Ingresos", "Egresos"},
	}
	if t.Income.IsZero() && t.Expense.IsZero() {
		c.Empty = true
		c.EmptyMessage = "No hay ingresos ni egresos registrados para este mes."
		return c
	}
	c.Datasets = []Dataset{{
		Label:  "En " + periodTitle(period),
		Data:   []decimal.Decimal{t.Income, t.Expense},
		Colors: []string{incomeColor, expenseColor},
	}}
	return c
}

// BalanceEvolutionChart draws the visible part of a balance series.
func BalanceEvolutionChart(s BalanceSeries) Chart {
	c := Chart{
		Kind:   KindLine,
		Title:  fmt.Sprintf("Evolución del balance - %d", s.Year),
		Labels: append([]string{}, monthAbbr[:len(s.Visible)]...),
	}
	if allZero(s.Visible) {
		c.Empty = true
		c.EmptyMessage = "No hay datos de balance para mostrar este año."
		return c
	}
	c.Datasets = []Dataset{{
		Label:  "Balance mensual",
		Data:   append([]decimal.Decimal{}, s.Visible...),
		Colors: []string{balanceColor},
	}}
	return c
}

// ProjectionChart compares budgeted and actual expense across the
// projection window.
func ProjectionChart(p Projection) Chart {
	c := Chart{
		Kind:   KindBar,
		Title:  "Proyección de egresos - " + periodTitle(p.Center),
		Labels: append([]string{}, p.Labels...),
	}
	if allZero(p.Estimated) && allZero(p.Actual) {
		c.Empty = true
		c.EmptyMessage = "No hay presupuestos ni egresos para proyectar."
		return c
	}
	c.Datasets = []Dataset{
		{Label: "Estimado", Data: append([]decimal.Decimal{}, p.Estimated...), Colors: []string{palette[1]}},
		{Label: "Real", Data: append([]decimal.Decimal{}, p.Actual...), Colors: []string{expenseColor}},
	}
	return c
}
