package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Veraticus/payroll-sentinel/internal/cli"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [company-id]",
		Short: "Assess companies and send alerts",
		Long: `Fetch balances and upcoming payroll, assess the risk, store the assessment
and send whatever alerts pass the cooldown and daily cap.

Check one company by id, or every active company with --all.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().Bool("all", false, "Check every active company")
	cmd.Flags().Bool("dry-run", false, "Assess without storing or sending anything")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if all == (len(args) == 1) {
		return errors.New("specify either a company id or --all")
	}

	a, err := newApp(ctx, prometheus.NewRegistry(), dryRun)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()

	if !all {
		res, err := a.monitor.CheckCompany(ctx, args[0])
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, cli.RenderAssessment(res.Assessment, res.Score, res.Summary)); err != nil {
			return err
		}
		return printDispatch(cmd, len(res.Dispatch.Sent), len(res.Dispatch.Failed), dryRun)
	}

	companies, err := a.store.ListCompanies(ctx, true)
	if err != nil {
		return err
	}
	progress := cli.NewCheckProgress(cmd.ErrOrStderr(), len(companies))

	summary, err := a.monitor.CheckAll(ctx, progress.Done)
	if summary == nil {
		return err
	}
	if err != nil {
		slog.Warn("Some companies could not be checked", "failed", summary.Failed, "error", err)
	}

	for _, r := range summary.Results {
		if r.Err != nil {
			if _, werr := fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", r.CompanyID, r.Err))); werr != nil {
				return werr
			}
			continue
		}
		line := fmt.Sprintf("%s: %s (score %d), %d alert(s) sent",
			r.CompanyID, r.Assessment.RiskLevel, r.Score, len(r.Dispatch.Sent))
		if _, werr := fmt.Fprintln(out, cli.LevelStyle(r.Assessment.RiskLevel).UnsetBold().Render(line)); werr != nil {
			return werr
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d companies failed", summary.Failed, summary.Checked)
	}
	return nil
}

func printDispatch(cmd *cobra.Command, sent, failed int, dryRun bool) error {
	var msg string
	switch {
	case dryRun:
		msg = cli.FormatWarning("Dry run: nothing stored or sent")
	case failed > 0:
		msg = cli.FormatError(fmt.Sprintf("%d alert(s) sent, %d failed", sent, failed))
	default:
		msg = cli.FormatSuccess(fmt.Sprintf("%d alert(s) sent", sent))
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), msg)
	return err
}
