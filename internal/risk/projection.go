package risk

import (
	"sort"
	"time"

	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// cashEvent is one dated movement of cash in either direction.
type cashEvent struct {
	date    time.Time
	inflow  float64
	outflow float64
}

// GenerateProjections walks obligations and inflows in date order and returns one
// projection per event. Events on the same date keep their input order, with
// obligations ahead of inflows.
func GenerateProjections(currentBalance float64, obligations []model.PayrollObligation, inflows []model.CashInflow) ([]model.CashFlowProjection, error) {
	return generateProjections(currentBalance, obligations, inflows, DefaultSafetyMultiplier)
}

func generateProjections(currentBalance float64, obligations []model.PayrollObligation, inflows []model.CashInflow, multiplier float64) ([]model.CashFlowProjection, error) {
	events := make([]cashEvent, 0, len(obligations)+len(inflows))
	for _, o := range obligations {
		events = append(events, cashEvent{date: o.Date, outflow: o.Amount})
	}
	for _, in := range inflows {
		events = append(events, cashEvent{date: in.Date, inflow: in.Amount})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].date.Before(events[j].date)
	})

	projections := make([]model.CashFlowProjection, 0, len(events))
	running := currentBalance

	for _, ev := range events {
		netFlow := ev.inflow - ev.outflow
		running += netFlow

		required := 0.0
		if ev.outflow != 0 {
			var err error
			required, err = CalculateRequiredFloat(ev.outflow, multiplier)
			if err != nil {
				return nil, err
			}
		}

		projections = append(projections, model.CashFlowProjection{
			Date:            ev.date,
			ExpectedInflow:  ev.inflow,
			ExpectedOutflow: ev.outflow,
			NetFlow:         netFlow,
			RunningBalance:  running,
			RiskLevel:       DetermineRiskLevel(running, required),
		})
	}

	return projections, nil
}
