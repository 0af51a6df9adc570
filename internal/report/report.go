// Package report prints a filtered view to the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/gastos-dev/gastos/internal/view"
)

const barWidth = 30

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cdd6f4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	amountStyle = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
)

// Render writes the transaction table followed by the per-category totals.
func Render(w io.Writer, rows []view.Row, slices []view.Slice) error {
	if _, err := fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Transações (%d)", len(rows)))); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("Nenhuma transação para os filtros selecionados."))
		return err
	}
	if _, err := fmt.Fprintln(w, Table(rows)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, titleStyle.Render("Gastos por categoria")); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, Chart(slices, view.Total(rows)))
	return err
}

// Table renders rows as Data, Descrição, Receita, Categoria.
func Table(rows []view.Row) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.DisplayDate, r.Description, view.Money(r.SignedAmount), r.Category}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("Data", "Descrição", "Receita", "Categoria").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 2:
				return amountStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

// Chart renders one bar per category, coloured like the web pie chart.
func Chart(slices []view.Slice, total decimal.Decimal) string {
	var b strings.Builder
	width := 0
	for _, s := range slices {
		width = max(width, lipgloss.Width(s.Category))
	}
	for _, s := range slices {
		n := int(s.Share.Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
		if n == 0 && s.Total.IsPositive() {
			n = 1
		}
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(strings.Repeat("█", n))
		label := lipgloss.NewStyle().Width(width).Render(s.Category)
		fmt.Fprintf(&b, "%s %s%s %s (%s%%)\n", label, bar, strings.Repeat(" ", barWidth-n), view.Money(s.Total), s.Percent())
	}
	fmt.Fprintf(&b, "%s", mutedStyle.Render("Total: "+view.Money(total)))
	return b.String()
}
