package model

import "time"

// AlertType is the closed set of alert kinds.
type AlertType string

// Alert types.
const (
	AlertLowBalance        AlertType = "low_balance"
	AlertUpcomingPayroll   AlertType = "upcoming_payroll"
	AlertCriticalRisk      AlertType = "critical_risk"
	AlertProjectionWarning AlertType = "projection_warning"
)

// Valid reports whether t is one of the known alert types.
func (t AlertType) Valid() bool {
	switch t {
	case AlertLowBalance, AlertUpcomingPayroll, AlertCriticalRisk, AlertProjectionWarning:
		return true
	}
	return false
}

// Severity of an alert.
type Severity string

// Severities.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertTrigger is a candidate notification produced from an assessment.
type AlertTrigger struct {
	Timestamp    time.Time `json:"timestamp"`
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	AlertType    AlertType `json:"alert_type"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	RiskScore    int       `json:"risk_score"`
	ShouldNotify bool      `json:"should_notify"`
}

// AlertHistoryEntry records an alert that was successfully sent.
type AlertHistoryEntry struct {
	SentAt           time.Time `json:"sent_at"`
	ID               string    `json:"id"`
	CompanyID        string    `json:"company_id"`
	AlertType        AlertType `json:"alert_type"`
	Severity         Severity  `json:"severity"`
	Message          string    `json:"message"`
	Channel          string    `json:"channel,omitempty"`
	ChannelMessageID string    `json:"channel_message_id,omitempty"`
	RiskScore        int       `json:"risk_score"`
}

// HistoryEntry builds the history record for a trigger sent at sentAt.
func (a AlertTrigger) HistoryEntry(sentAt time.Time, channel, messageID string) AlertHistoryEntry {
	return AlertHistoryEntry{
		ID:               a.ID,
		CompanyID:        a.CompanyID,
		AlertType:        a.AlertType,
		Severity:         a.Severity,
		Message:          a.Message,
		RiskScore:        a.RiskScore,
		SentAt:           sentAt,
		Channel:          channel,
		ChannelMessageID: messageID,
	}
}
