package main

import (
	"fmt"
	"io"
	"strconv"

	"budgenet/internal/core"
	"budgenet/internal/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

var (
	colorBlue    = lipgloss.Color("#89b4fa")
	colorGreen   = lipgloss.Color("#a6e3a1")
	colorRed     = lipgloss.Color("#f38ba8")
	colorOverlay = lipgloss.Color("#6c7086")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorOverlay)
	goodStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	badStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func money(d decimal.Decimal) string {
	return core.FormatAmount(d)
}

// signed renders a balance in green or red.
func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return badStyle.Render(money(d))
	}
	return goodStyle.Render(money(d))
}

func periodHeading(p core.Period) string {
	return titleStyle.Render(fmt.Sprintf("%s %d", report.MonthName(p.Month), p.Year))
}

func renderCategories(w io.Writer, cats []core.Category) {
	t := newTable("ID", "Nombre", "Predefinida")
	for _, c := range cats {
		def := ""
		if c.IsDefault {
			def = "sí"
		}
		t.Row(strconv.FormatInt(c.ID, 10), c.Name, def)
	}
	fmt.Fprintln(w, t.String())
}

func renderTransactions(w io.Writer, p core.Period, txs []core.Transaction, totals report.Totals) {
	fmt.Fprintln(w, periodHeading(p))
	if len(txs) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No hay transacciones para este período."))
		return
	}
	t := newTable("ID", "Fecha", "Tipo", "Categoría", "Descripción", "Monto")
	for _, tx := range txs {
		amount := money(tx.Amount)
		if tx.Type == core.Expense {
			amount = badStyle.Render("-" + amount)
		} else {
			amount = goodStyle.Render("+" + amount)
		}
		desc := tx.Description
		if tx.IsEdited {
			desc += mutedStyle.Render(" (editada)")
		}
		t.Row(strconv.FormatInt(tx.ID, 10), tx.Date.Format("2006-01-02"), string(tx.Type), tx.CategoryName, desc, amount)
	}
	fmt.Fprintln(w, t.String())
	renderTotals(w, totals)
}

func renderTotals(w io.Writer, totals report.Totals) {
	fmt.Fprintf(w, "Ingresos: %s  Egresos: %s  Balance: %s\n",
		money(totals.Income), money(totals.Expense), signed(totals.Balance()))
}

var statusLabels = map[report.Status]string{
	report.StatusOK:          "dentro del presupuesto",
	report.StatusExactlyUsed: "presupuesto agotado",
	report.StatusExceeded:    "excedido",
	report.StatusNoBudget:    "sin presupuesto",
}

func renderStatus(w io.Writer, r report.StatusReport) {
	fmt.Fprintln(w, periodHeading(r.Period))
	if len(r.PerCategory) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No hay presupuestos ni gastos para este período."))
		return
	}
	t := newTable("Categoría", "Presupuesto", "Gastado", "Restante", "Estado")
	for _, s := range r.PerCategory {
		label := statusLabels[s.Status]
		if s.Status == report.StatusExceeded {
			label = badStyle.Render(label)
		}
		t.Row(s.Name, money(s.Estimated), money(s.Actual), signed(s.Remaining), label)
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "Total presupuestado: %s  Total gastado: %s  Restante: %s\n",
		money(r.OverallEstimated), money(r.OverallActual), signed(r.OverallRemaining()))
}

func renderSums(w io.Writer, title string, sums []report.CategorySum) {
	fmt.Fprintln(w, titleStyle.Render(title))
	if len(sums) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Sin datos."))
		return
	}
	t := newTable("Categoría", "Total")
	for _, s := range sums {
		t.Row(s.Name, money(s.Total))
	}
	fmt.Fprintln(w, t.String())
}

func renderComparison(w io.Writer, c report.Comparison) {
	fmt.Fprintln(w, titleStyle.Render("Presupuesto vs. real"))
	if len(c.Rows) == 0 && len(c.Unbudgeted) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Sin datos."))
		return
	}
	t := newTable("Categoría", "Estimado", "Real")
	for _, r := range c.Rows {
		t.Row(r.Name, money(r.Estimated), money(r.Actual))
	}
	for _, r := range c.Unbudgeted {
		t.Row(r.Name+mutedStyle.Render(" (sin presupuesto)"), "-", money(r.Actual))
	}
	fmt.Fprintln(w, t.String())
}

func renderBalance(w io.Writer, s report.BalanceSeries) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Balance mensual %d", s.Year)))
	if len(s.Visible) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Sin meses transcurridos."))
		return
	}
	t := newTable("Mes", "Balance")
	for i, v := range s.Visible {
		t.Row(report.PeriodLabel(core.Period{Month: i + 1, Year: s.Year}), signed(v))
	}
	fmt.Fprintln(w, t.String())
}

// renderChartNotes lists the charts that have nothing to draw.
func renderChartNotes(w io.Writer, charts []report.Chart) {
	for _, c := range charts {
		if c.Empty {
			fmt.Fprintf(w, "%s: %s\n", c.Title, mutedStyle.Render(c.EmptyMessage))
		}
	}
}

func renderDashboard(w io.Writer, d report.Dashboard) {
	fmt.Fprintln(w, periodHeading(d.Period))
	renderTotals(w, d.Totals)
	fmt.Fprintln(w)
	renderSums(w, "Egresos por categoría", d.Expenses)
	renderSums(w, "Ingresos por categoría", d.Incomes)
	renderComparison(w, d.Comparison)
	renderBalance(w, d.Balance)
	renderChartNotes(w, d.Charts)
}

func renderProjection(w io.Writer, p report.Projection) {
	fmt.Fprintln(w, titleStyle.Render("Proyección de egresos - "+report.PeriodLabel(p.Center)))
	t := newTable("Mes", "Estimado", "Real")
	for i, label := range p.Labels {
		if p.Periods[i] == p.Center {
			label = titleStyle.Render(label)
		}
		t.Row(label, money(p.Estimated[i]), money(p.Actual[i]))
	}
	fmt.Fprintln(w, t.String())
}
