package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Veraticus/payroll-sentinel/internal/cli"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/ofx"
	"github.com/Veraticus/payroll-sentinel/internal/risk"
)

func assessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assess [company-id]",
		Short: "Assess payroll risk without sending alerts",
		Long: `Assess payroll risk and print the result. Nothing is stored and no alert is sent.

With a company id, the balance and payroll come from the configured providers.
Without one, they come from flags:

  sentinel assess --balance 48000 --payroll 2026-03-13:42000 --payroll 2026-03-27:42000
  sentinel assess --ofx statement.qfx --payroll 2026-03-13:42000 --inflow 2026-03-10:15000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAssess,
	}

	cmd.Flags().Float64("balance", 0, "Current cash balance")
	cmd.Flags().String("ofx", "", "Read the balance from an OFX/QFX statement")
	cmd.Flags().StringArray("payroll", nil, "Payroll obligation as DATE:AMOUNT (repeatable)")
	cmd.Flags().StringArray("inflow", nil, "Expected inflow as DATE:AMOUNT (repeatable)")
	cmd.Flags().Float64("multiplier", risk.DefaultSafetyMultiplier, "Safety multiplier over the next payroll")
	cmd.Flags().Bool("json", false, "Print the assessment as JSON")

	return cmd
}

func runAssess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")

	var (
		assessment *model.RiskAssessment
		score      int
		summary    string
	)

	if len(args) == 1 {
		a, err := newApp(ctx, prometheus.NewRegistry(), true)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		res, err := a.monitor.CheckCompany(ctx, args[0])
		if err != nil {
			return err
		}
		assessment, score, summary = res.Assessment, res.Score, res.Summary
	} else {
		balance, err := flagBalance(cmd)
		if err != nil {
			return err
		}
		obligations, inflows, err := flagEvents(cmd)
		if err != nil {
			return err
		}
		multiplier, _ := cmd.Flags().GetFloat64("multiplier")

		assessment, err = risk.NewAssessor(risk.WithSafetyMultiplier(multiplier)).
			Assess("adhoc", balance, obligations, inflows)
		if err != nil {
			return err
		}
		score = risk.CalculateRiskScore(assessment)
		summary = risk.GenerateRiskSummary(assessment)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(model.AssessmentRecord{Assessment: *assessment, RiskScore: score, Summary: summary})
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAssessment(assessment, score, summary))
	return err
}

func flagBalance(cmd *cobra.Command) (float64, error) {
	path, _ := cmd.Flags().GetString("ofx")
	if path == "" {
		return cmd.Flags().GetFloat64("balance")
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	balance, err := ofx.NewParser().ParseBalance(cmd.Context(), f)
	if err != nil {
		return 0, err
	}
	return balance.Amount, nil
}

func flagEvents(cmd *cobra.Command) ([]model.PayrollObligation, []model.CashInflow, error) {
	rawPayroll, _ := cmd.Flags().GetStringArray("payroll")
	rawInflows, _ := cmd.Flags().GetStringArray("inflow")

	obligations := make([]model.PayrollObligation, 0, len(rawPayroll))
	for _, raw := range rawPayroll {
		date, amount, err := parseDatedAmount(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("--payroll: %w", err)
		}
		obligations = append(obligations, model.PayrollObligation{Date: date, Amount: amount})
	}
	sort.SliceStable(obligations, func(i, j int) bool {
		return obligations[i].Date.Before(obligations[j].Date)
	})

	inflows := make([]model.CashInflow, 0, len(rawInflows))
	for _, raw := range rawInflows {
		date, amount, err := parseDatedAmount(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("--inflow: %w", err)
		}
		inflows = append(inflows, model.CashInflow{Date: date, Amount: amount, Confidence: 1})
	}

	return obligations, inflows, nil
}

// parseDatedAmount parses DATE:AMOUNT.
func parseDatedAmount(raw string) (time.Time, float64, error) {
	dateStr, amountStr, ok := strings.Cut(raw, ":")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("expected DATE:AMOUNT, got %q", raw)
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return time.Time{}, 0, err
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(amountStr, ",", ""), 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	return date, amount, nil
}
