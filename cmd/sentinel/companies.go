package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/payroll-sentinel/internal/cli"
	"github.com/Veraticus/payroll-sentinel/internal/model"
	"github.com/Veraticus/payroll-sentinel/internal/plaid"
	"github.com/Veraticus/payroll-sentinel/internal/simplefin"
)

func companiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "companies",
		Aliases: []string{"company"},
		Short:   "Manage monitored companies",
	}

	cmd.AddCommand(companiesAddCmd())
	cmd.AddCommand(companiesListCmd())
	cmd.AddCommand(companiesLinkCmd())
	cmd.AddCommand(companiesPauseCmd(false))
	cmd.AddCommand(companiesPauseCmd(true))

	return cmd
}

func companiesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a company for monitoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			slack, _ := cmd.Flags().GetString("slack-channel")
			chatID, _ := cmd.Flags().GetInt64("telegram-chat")

			company := &model.Company{Name: args[0], SlackChannel: slack, TelegramChatID: chatID, Active: true}
			if err := store.CreateCompany(ctx, company); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s (%s)", company.Name, company.ID)))
			return err
		},
	}

	cmd.Flags().String("slack-channel", "", "Slack channel override for this company")
	cmd.Flags().Int64("telegram-chat", 0, "Telegram chat id override for this company")

	return cmd
}

func companiesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			activeOnly, _ := cmd.Flags().GetBool("active")
			companies, err := store.ListCompanies(ctx, activeOnly)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCompanies(companies))
			return err
		},
	}

	cmd.Flags().Bool("active", false, "Only show active companies")
	return cmd
}

func companiesLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link-account <company-id>",
		Short: "Link a bank connection to a company",
		Long: `Link a bank account to a company. Pass an existing --access-token, a
--public-token from Plaid Link to exchange for one, or a --simplefin-token
setup token to claim a SimpleFIN access URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			accessToken, _ := cmd.Flags().GetString("access-token")
			publicToken, _ := cmd.Flags().GetString("public-token")
			institution, _ := cmd.Flags().GetString("institution")
			name, _ := cmd.Flags().GetString("name")
			setupToken, _ := cmd.Flags().GetString("simplefin-token")

			if countSet(accessToken, publicToken, setupToken) != 1 {
				return errors.New("specify exactly one of --access-token, --public-token or --simplefin-token")
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

			if publicToken != "" {
				client, err := plaid.NewClient(plaid.Config{
					ClientID:    cfg.Plaid.ClientID,
					Secret:      cfg.Plaid.Secret,
					Environment: cfg.Plaid.Environment,
				})
				if err != nil {
					return err
				}
				if accessToken, _, err = client.ExchangePublicToken(ctx, publicToken); err != nil {
					return err
				}
			}
			if setupToken != "" {
				client := simplefin.NewClient(cfg.Balance.SimpleFINTimeout)
				if accessToken, err = client.Claim(ctx, setupToken); err != nil {
					return err
				}
			}

			account := &model.BankAccount{
				CompanyID:       args[0],
				AccessToken:     accessToken,
				InstitutionName: institution,
				AccountName:     name,
			}
			if err := store.AddBankAccount(ctx, account); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Linked account "+account.ID))
			return err
		},
	}

	cmd.Flags().String("access-token", "", "Plaid access token")
	cmd.Flags().String("public-token", "", "Plaid Link public token to exchange")
	cmd.Flags().String("simplefin-token", "", "SimpleFIN setup token to claim")
	cmd.Flags().String("institution", "", "Institution name")
	cmd.Flags().String("name", "", "Account name")

	return cmd
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

func companiesPauseCmd(active bool) *cobra.Command {
	use, short := "pause <company-id>", "Stop monitoring a company"
	if active {
		use, short = "resume <company-id>", "Resume monitoring a company"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetCompanyActive(ctx, args[0], active); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Updated "+args[0]))
			return err
		},
	}
}
