package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/risk"
)

// maxProjectionRows caps the projection table; the rest is summarised.
const maxProjectionRows = 12

// RenderAssessment renders an assessment with its score and summary.
func RenderAssessment(a *model.RiskAssessment, score int, summary string) string {
	if a == nil {
		return ""
	}

	rows := []string{
		kv("Company", a.CompanyID),
		kv("Risk level", LevelStyle(a.RiskLevel).Render(strings.ToUpper(string(a.RiskLevel)))),
		kv("Risk score", fmt.Sprintf("%d/100", score)),
		kv("Balance", risk.FormatCurrency(a.CurrentBalance)),
		kv("Required float", risk.FormatCurrency(a.RequiredFloat)),
	}
	if a.NextPayrollDate != nil {
		amount := 0.0
		if a.NextPayrollAmount != nil {
			amount = *a.NextPayrollAmount
		}
		rows = append(rows,
			kv("Next payroll", fmt.Sprintf("%s on %s", risk.FormatCurrency(amount), a.NextPayrollDate.Format(time.DateOnly))),
			kv("Days until", strconv.Itoa(a.DaysUntilRisk)),
		)
	} else {
		rows = append(rows, kv("Next payroll", SubtleStyle.Render("none scheduled")))
	}

	sections := []string{
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		"",
		LevelStyle(a.RiskLevel).UnsetBold().Render(summary),
	}

	if len(a.Recommendations) > 0 {
		recs := make([]string, 0, len(a.Recommendations))
		for _, r := range a.Recommendations {
			recs = append(recs, "• "+r)
		}
		sections = append(sections, "", TitleStyle.UnsetMargins().Render("Recommendations"), strings.Join(recs, "\n"))
	}

	if len(a.Projections) > 0 {
		sections = append(sections, "", TitleStyle.UnsetMargins().Render("Cash flow projection"), RenderProjections(a.Projections))
	}

	return RenderBox(ShieldIcon+" Payroll risk assessment", lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// RenderProjections renders projections as a table.
func RenderProjections(projections []model.CashFlowProjection) string {
	header := []string{"Date", "Inflow", "Outflow", "Balance", "Risk"}
	var rows [][]string
	for i, p := range projections {
		if i == maxProjectionRows {
			break
		}
		rows = append(rows, []string{
			p.Date.Format(time.DateOnly),
			risk.FormatCurrency(p.ExpectedInflow),
			risk.FormatCurrency(p.ExpectedOutflow),
			risk.FormatCurrency(p.RunningBalance),
			LevelStyle(p.RiskLevel).Render(string(p.RiskLevel)),
		})
	}
	out := renderTable(header, rows)
	if extra := len(projections) - maxProjectionRows; extra > 0 {
		out += "\n" + SubtleStyle.Render(fmt.Sprintf("… %d more", extra))
	}
	return out
}

// RenderAlerts renders sent alerts, newest first as given.
func RenderAlerts(entries []model.AlertHistoryEntry) string {
	if len(entries) == 0 {
		return SubtleStyle.Render("No alerts sent.")
	}
	header := []string{"Sent", "Type", "Severity", "Score", "Channel"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.SentAt.Local().Format("2006-01-02 15:04"),
			string(e.AlertType),
			SeverityStyle(e.Severity).Render(string(e.Severity)),
			strconv.Itoa(e.RiskScore),
			e.Channel,
		})
	}
	return renderTable(header, rows)
}

// RenderCompanies renders a company list.
func RenderCompanies(companies []model.Company) string {
	if len(companies) == 0 {
		return SubtleStyle.Render("No companies registered.")
	}
	header := []string{"ID", "Name", "Active", "Created"}
	rows := make([][]string, 0, len(companies))
	for _, c := range companies {
		active := SuccessStyle.Render(SuccessIcon)
		if !c.Active {
			active = SubtleStyle.Render("-")
		}
		rows = append(rows, []string{c.ID, c.Name, active, c.CreatedAt.Local().Format(time.DateOnly)})
	}
	return renderTable(header, rows)
}

// RenderPayrollRuns renders stored payroll runs.
func RenderPayrollRuns(runs []model.PayrollRun) string {
	if len(runs) == 0 {
		return SubtleStyle.Render("No payroll runs.")
	}
	header := []string{"Pay date", "Amount", "Employees", "Status", "Description"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.PayDate.Format(time.DateOnly),
			risk.FormatCurrency(r.Amount),
			strconv.Itoa(r.EmployeeCount),
			string(r.Status),
			r.Description,
		})
	}
	return renderTable(header, rows)
}

func kv(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}

// renderTable lays out rows in columns sized to their widest cell.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := []string{renderRow(header, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
