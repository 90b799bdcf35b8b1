// Package notify delivers alerts to Slack, Telegram and the log.
package notify

import (
	"fmt"
	"strings"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

var severityIcons = map[model.Severity]string{
	model.SeverityCritical: "🚨",
	model.SeverityWarning:  "⚠️",
	model.SeverityInfo:     "ℹ️",
}

var alertTitles = map[model.AlertType]string{
	model.AlertCriticalRisk:      "Critical payroll risk",
	model.AlertLowBalance:        "Low balance",
	model.AlertUpcomingPayroll:   "Upcoming payroll",
	model.AlertProjectionWarning: "Projection warning",
}

// Format renders an alert as plain text suitable for any channel.
func Format(a model.AlertTrigger) string {
	icon, ok := severityIcons[a.Severity]
	if !ok {
		icon = "•"
	}
	title, ok := alertTitles[a.AlertType]
	if !ok {
		title = string(a.AlertType)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n", icon, title, strings.ToUpper(string(a.Severity)))
	if a.CompanyID != "" {
		fmt.Fprintf(&b, "Company: %s\n", a.CompanyID)
	}
	b.WriteString(a.Message)
	fmt.Fprintf(&b, "\nRisk score: %d/100", a.RiskScore)
	return b.String()
}
