package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/payroll-sentinel/internal/cli"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/payroll"
	"github.com/Veraticus/payroll-sentinel/internal/service"
)

func payrollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payroll",
		Short: "Manage stored payroll runs",
	}

	cmd.AddCommand(payrollAddCmd())
	cmd.AddCommand(payrollImportCmd())
	cmd.AddCommand(payrollListCmd())

	return cmd
}

func payrollAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <company-id> <pay-date> <amount>",
		Short: "Record an upcoming payroll run",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date, amount, err := parseDatedAmount(args[1] + ":" + args[2])
			if err != nil {
				return err
			}
			employees, _ := cmd.Flags().GetInt("employees")
			description, _ := cmd.Flags().GetString("description")
			status, _ := cmd.Flags().GetString("status")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run := &model.PayrollRun{
				CompanyID:     args[0],
				PayDate:       date,
				Amount:        amount,
				EmployeeCount: employees,
				Description:   description,
				Status:        model.PayrollRunStatus(status),
			}
			if err := store.SavePayrollRun(ctx, run); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved payroll run "+run.ID))
			return err
		},
	}

	cmd.Flags().Int("employees", 0, "Number of employees paid")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("status", string(model.PayrollRunDraft), "Status (draft, approved, processed)")

	return cmd
}

func payrollImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import payroll runs from CSV",
		Long: `Import payroll runs from a CSV file with a header row:

  company_id,pay_date,amount,employee_count,description`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			runs, err := payroll.ImportCSV(f)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for i := range runs {
				if err := store.SavePayrollRun(ctx, &runs[i]); err != nil {
					return fmt.Errorf("row %d: %w", i+1, err)
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d payroll run(s)", len(runs))))
			return err
		},
	}
}

func payrollListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <company-id>",
		Short: "List stored payroll runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.GetPayrollRuns(ctx, args[0], service.PayrollRunFilter{
				Status: model.PayrollRunStatus(status),
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderPayrollRuns(runs))
			return err
		},
	}

	cmd.Flags().String("status", "", "Only show runs with this status")
	cmd.Flags().Int("limit", 0, "Maximum runs to show")

	return cmd
}
